package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no item exists at the requested key.
	ErrNotFound = errors.New("hirewire: item not found")

	// ErrConditionFailed is returned when a single-item write's
	// precondition did not hold. It is never retried.
	ErrConditionFailed = errors.New("hirewire: condition failed")
)

// AbortReason reports why one item of a multi-item commit failed.
type AbortReason struct {
	// Index is the item's position in the operation list passed to
	// CommitAtomic.
	Index int

	// Code is the backend cancellation code (e.g. "ConditionalCheckFailed").
	Code string

	// Message is the backend's human-readable detail, if any.
	Message string
}

// CommitAbortedError is returned when a multi-item commit aborted because
// at least one operation's precondition did not hold. The whole set is
// rolled back; Reasons identifies the failing items so callers can tell a
// lost race on one item from another.
type CommitAbortedError struct {
	Reasons []AbortReason
}

func (e *CommitAbortedError) Error() string {
	if len(e.Reasons) == 0 {
		return "hirewire: commit aborted"
	}
	return fmt.Sprintf("hirewire: commit aborted (%d precondition failure(s), first at item %d)",
		len(e.Reasons), e.Reasons[0].Index)
}

// PreconditionFailed reports whether the operation at the given index was
// one of the items whose precondition failed.
func (e *CommitAbortedError) PreconditionFailed(index int) bool {
	for _, r := range e.Reasons {
		if r.Index == index {
			return true
		}
	}
	return false
}
