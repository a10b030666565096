package axe

import (
	"fmt"

	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
)

// Error is returned when the audit could not be run or its result could not
// be read. It is never returned for violations found by the audit.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("axe: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements errext.HasExitCode.
func (e *Error) ExitCode() exitcodes.ExitCode { return exitcodes.AnalysisFailed }

var _ errext.HasExitCode = &Error{}
