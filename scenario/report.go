package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/grafana/a11yscan/axe"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/lib/types"
	"github.com/grafana/a11yscan/webdriver"
)

// Report is the outcome of a scenario in a browser.
type Report struct {
	Scenario string                `json:"scenario"`
	Browser  webdriver.BrowserKind `json:"browser"`
	URL      string                `json:"url"`
	Target   string                `json:"target,omitempty"`
	Expected null.Int              `json:"expected"`
	Duration types.Duration        `json:"duration"`
	Result   *axe.Result           `json:"result"`
}

// Violations returns the number of violated rules.
func (r *Report) Violations() int {
	if r.Result == nil {
		return 0
	}
	return r.Result.ViolationCount()
}

// Check compares the violation count with the expected one.
// It returns nil when nothing is expected.
func (r *Report) Check() error {
	if !r.Expected.Valid || r.Expected.Int64 == int64(r.Violations()) {
		return nil
	}
	var rules []string
	if r.Result != nil {
		rules = r.Result.ViolatedRules()
	}
	return &AssertionError{
		Scenario: r.Scenario,
		Browser:  r.Browser,
		Expected: int(r.Expected.Int64),
		Actual:   r.Violations(),
		Rules:    rules,
	}
}

// AssertionError is returned when a scan found an unexpected number of
// violations.
type AssertionError struct {
	Scenario string
	Browser  webdriver.BrowserKind
	Expected int
	Actual   int
	Rules    []string
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s in %s: expected %d violations, got %d", e.Scenario, e.Browser, e.Expected, e.Actual)
	if len(e.Rules) > 0 {
		msg += " (" + strings.Join(e.Rules, ", ") + ")"
	}
	return msg
}

// ExitCode implements errext.HasExitCode.
func (e *AssertionError) ExitCode() exitcodes.ExitCode { return exitcodes.ViolationsMismatch }

var _ errext.HasExitCode = &AssertionError{}

// Persister stores a report.
type Persister interface {
	Persist(ctx context.Context, path string, data io.Reader) error
}

// WriteReports stores reports as a JSON array at path.
func WriteReports(ctx context.Context, p Persister, path string, reports []*Report) error {
	b, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}
	if err := p.Persist(ctx, path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}
	return nil
}
