// Package errext contains extensions for normal Go errors that are used in a11yscan.
package errext

import (
	"errors"

	"github.com/grafana/a11yscan/errext/exitcodes"
)

// HasExitCode is an error that decides the a11yscan process exit code when it
// reaches the top of a command.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// ExitCodeOf returns the exit code of the first error in the chain of err
// that has one.
func ExitCodeOf(err error) (exitcodes.ExitCode, bool) {
	var ecerr HasExitCode
	if !errors.As(err, &ecerr) {
		return 0, false
	}
	return ecerr.ExitCode(), true
}

// WithExitCodeIfNone attaches exitCode to err unless something in its chain
// already carries a code. A nil err stays nil.
func WithExitCodeIfNone(err error, exitCode exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}
	if _, ok := ExitCodeOf(err); ok {
		return err
	}
	return &codedError{err: err, code: exitCode}
}

type codedError struct {
	err  error
	code exitcodes.ExitCode
}

func (e *codedError) Error() string                { return e.err.Error() }
func (e *codedError) Unwrap() error                { return e.err }
func (e *codedError) ExitCode() exitcodes.ExitCode { return e.code }
