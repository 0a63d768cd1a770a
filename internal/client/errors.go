package client

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is returned when the remote rejects a request for
// exceeding its rate budget. RetryAfter carries the server's wait hint;
// zero means the server gave none.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rate limited: %s (retry after %s)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
}

// RetryAfterHint extracts the wait hint from err, if it carries one.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// NotFoundError is returned when a workspace or project name has no
// match on the remote side. It is fatal for a run: there is nothing to
// retry.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
