package rotation

import "time"

// Trigger asks the daemon loop to run a rotation pass. Triggers are
// coalesced through the mailbox: a pass already covers everything pending.
type Trigger struct {
	Reason string
	At     time.Time
}
