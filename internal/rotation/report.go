package rotation

import "time"

// Report summarizes one rotation pass.
type Report struct {
	Started  time.Time
	Finished time.Time

	Renamed  int
	Promoted int
	Deleted  int
	Kept     int

	// Errors holds every non-fatal failure of the pass: scan errors, files
	// with unreadable timestamps, and individual apply steps that failed.
	Errors []error
}

// Decisions is the number of applied (or, in dry-run, reported) transitions.
func (r *Report) Decisions() int {
	return r.Renamed + r.Promoted + r.Deleted
}

// Failed reports whether any part of the pass went wrong. The process exits
// non-zero in that case even though unaffected owners completed.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}
