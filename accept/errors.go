package accept

import "net/http"

// Kind classifies a terminal outcome of the acceptance flow.
type Kind int

const (
	// KindValidation: missing or malformed identifiers, rejected before
	// any store access.
	KindValidation Kind = iota

	// KindNotFound: the job or bid does not exist.
	KindNotFound

	// KindForbidden: the caller is not the job's owning client.
	KindForbidden

	// KindInvalidState: the job or bid is not in a state acceptance can
	// proceed from.
	KindInvalidState

	// KindConflict: a different bid was already accepted, or the commit
	// lost a race. Determined from data or from a commit-time
	// precondition failure; never from a transient fault.
	KindConflict
)

// Error is a terminal non-success outcome. It is determined from state
// already read or from a commit abort, and is never retried internally:
// a conflict means the business decision was already made elsewhere, and
// retrying would silently overwrite it.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// HTTPStatus maps the outcome to its HTTP-equivalent status class.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func validationError(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func notFoundError(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func forbiddenError(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func invalidStateError(reason string) *Error {
	return &Error{Kind: KindInvalidState, Reason: reason}
}

func conflictError(reason string) *Error {
	return &Error{Kind: KindConflict, Reason: reason}
}
