package directory

import (
	"errors"
	"fmt"
)

// ErrNotFound means the directory authoritatively does not know the id.
// It is safe to negative-cache.
var ErrNotFound = errors.New("student id not found")

// TransientError is a network or server failure. It must never be
// cached; an identical scan later retries the lookup.
type TransientError struct {
	Detail string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory lookup failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("directory lookup failed: %s", e.Detail)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable lookup failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
