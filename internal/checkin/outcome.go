package checkin

import (
	"time"

	"checkin/internal/directory"
)

// Kind is the closed set of per-scan results.
type Kind int

const (
	// KindSuccess means a first-time check-in was recorded.
	KindSuccess Kind = iota
	// KindAlreadyCheckedIn means the resolved student already holds a
	// record for this event. A warning, not an error.
	KindAlreadyCheckedIn
	// KindNotFound means the directory authoritatively rejected the id.
	KindNotFound
	// KindTransientError means the lookup failed and may succeed on a
	// fresh scan.
	KindTransientError
)

// Outcome is the result of processing one scanned id. Identity is set
// only for KindSuccess and KindAlreadyCheckedIn; Detail only for
// KindTransientError.
type Outcome struct {
	Kind     Kind
	RawID    string
	Message  string
	Identity *directory.Identity
	Detail   string
	At       time.Time
}

// Classification maps the outcome kind onto its display class.
func (o Outcome) Classification() string {
	switch o.Kind {
	case KindSuccess:
		return "success"
	case KindAlreadyCheckedIn:
		return "warning"
	default:
		return "error"
	}
}
