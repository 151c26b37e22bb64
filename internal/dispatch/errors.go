package dispatch

import (
	"errors"
	"fmt"

	"github.com/biizlabs/jobengine/internal/config"
)

// ConfigError reports a required execution-kind field that was missing or
// invalid. Creation surfaces it to the caller immediately; it never enters
// the retry path.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "execution config: " + e.Field + ": " + e.Message
}

// Error is a dispatch failure: the attempt ran and did not succeed. The
// orchestrator converts it into a retry/backoff transition.
type Error struct {
	Kind config.ExecutionType
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failf(kind config.ExecutionType, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsConfigError reports whether err stems from an incomplete execution
// descriptor rather than a failed attempt.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
