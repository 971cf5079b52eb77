package verification

import (
	"errors"
	"fmt"
)

var (
	ErrVerificationFailed = errors.New("verification failed")
	ErrTemplateNotFound   = errors.New("no identity template registered")
)

// FailedError carries the human-readable reason a verification was refused.
type FailedError struct {
	Reason string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("verification failed: %s", e.Reason)
}

func (e *FailedError) Unwrap() error {
	return ErrVerificationFailed
}

func Failed(format string, args ...interface{}) error {
	return &FailedError{Reason: fmt.Sprintf(format, args...)}
}
