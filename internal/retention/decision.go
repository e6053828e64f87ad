package retention

import (
	"fmt"

	"github.com/raoulx24/backup-rotator/internal/backup"
)

// Op is the kind of transition the classifier decided on.
type Op int

const (
	Keep Op = iota
	Rename
	MoveToTier
	Delete
)

func (o Op) String() string {
	switch o {
	case Keep:
		return "keep"
	case Rename:
		return "rename"
	case MoveToTier:
		return "move"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Decision is one classifier verdict for one entry. It never mutates state
// itself; the rotation engine applies it through the filesystem port.
type Decision struct {
	Entry   backup.Entry
	Op      Op
	NewName string      // set for Rename
	Target  backup.Tier // set for MoveToTier
	Reason  string
}

func (d Decision) String() string {
	switch d.Op {
	case Rename:
		return fmt.Sprintf("rename %s -> %s", d.Entry.Path, d.NewName)
	case MoveToTier:
		return fmt.Sprintf("move %s -> %s", d.Entry.Path, d.Target)
	case Delete:
		return fmt.Sprintf("delete %s (%s)", d.Entry.Path, d.Reason)
	default:
		return fmt.Sprintf("keep %s", d.Entry.Path)
	}
}
