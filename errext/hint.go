package errext

import (
	"errors"
	"strings"
)

// HasHint is an error carrying a suggestion for the user, such as which
// variable or flag to set.
type HasHint interface {
	error
	Hint() string
}

// WithHint attaches hint to err. A nil err stays nil. Hints already present
// in the chain of err follow the new one, separated by "; ", and a hint is
// only listed once.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintedError{err: err, hint: hint}
}

type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() error { return e.err }

func (e *hintedError) Hint() string {
	var inner HasHint
	if !errors.As(e.err, &inner) {
		return e.hint
	}
	hints := []string{e.hint}
	for _, h := range strings.Split(inner.Hint(), "; ") {
		if h != "" && h != e.hint {
			hints = append(hints, h)
		}
	}
	return strings.Join(hints, "; ")
}
