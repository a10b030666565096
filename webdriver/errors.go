package webdriver

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
)

var (
	// ErrUnsupportedBrowser is returned for browsers other than Chrome and Firefox.
	ErrUnsupportedBrowser = errors.New("unsupported browser")

	// ErrTimeout matches every TimeoutError.
	ErrTimeout = errors.New("timed out")

	// ErrReleased is returned when a released session is used.
	ErrReleased = errors.New("session released")
)

// ProvisionError is returned when a browser session cannot be started.
type ProvisionError struct {
	Browser BrowserKind
	Op      string
	Err     error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s: %s: %v", e.Browser, e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// ExitCode implements errext.HasExitCode.
func (e *ProvisionError) ExitCode() exitcodes.ExitCode { return exitcodes.ProvisioningFailed }

// Hint implements errext.HasHint.
func (e *ProvisionError) Hint() string {
	if errors.Is(e.Err, os.ErrNotExist) {
		return fmt.Sprintf("set %s to the directory containing %s", driverDirEnv(e.Browser), e.Browser.DriverExecutable())
	}
	return "check that the browser and its driver are installed and their versions match"
}

// TimeoutError is returned when an element did not show up in time.
type TimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error // last lookup error, if any
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("waiting for %q: timed out after %s", e.Selector, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTimeout) true for every TimeoutError.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ExitCode implements errext.HasExitCode.
func (e *TimeoutError) ExitCode() exitcodes.ExitCode { return exitcodes.ReadyTimeout }

var (
	_ errext.HasExitCode = &ProvisionError{}
	_ errext.HasHint     = &ProvisionError{}
	_ errext.HasExitCode = &TimeoutError{}
)
