package dddapi

import "errors"

// NotFoundError means the lookup terminated without a usable game or topic
// data: empty title, no search results, no video-game candidate, or no
// topic statistics. Callers present one generic "couldn't find warnings"
// message regardless of the internal reason.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
