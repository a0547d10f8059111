package assets

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Status is the transcript lifecycle state of an asset.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusDone,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions lists every permitted status change. Skipped is terminal for the
// runners; only an explicit requeue moves an asset out of it.
var transitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusSkipped},
	StatusRunning: {StatusDone, StatusFailed, StatusSkipped},
	StatusFailed:  {StatusRunning, StatusSkipped},
	StatusDone:    {StatusSkipped},
	StatusSkipped: nil,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether from → to is a valid transcript status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from → to is not permitted.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
}

// Terminal reports whether no runner transition leaves the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
