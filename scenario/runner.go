package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/grafana/a11yscan/axe"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/lib/types"
	"github.com/grafana/a11yscan/trace"
	"github.com/grafana/a11yscan/webdriver"
)

// Provisioner starts browser sessions.
type Provisioner interface {
	Provision(ctx context.Context, kind webdriver.BrowserKind) (*webdriver.Session, error)
}

// Runner runs scenarios, one browser session at a time.
type Runner struct {
	provisioner Provisioner
	analyzer    *axe.Analyzer
	tracer      *trace.Tracer
	logger      *log.Logger
	fs          afero.Fs
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTracer sets the tracer of the scan spans.
func WithTracer(t *trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithFs sets the filesystem local pages are checked on.
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// NewRunner returns a Runner auditing the sessions started by p.
func NewRunner(p Provisioner, a *axe.Analyzer, logger *log.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		provisioner: p,
		analyzer:    a,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewNullLogger()
	}
	if r.tracer == nil {
		r.tracer = trace.NewNoopTracer()
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	return r
}

// Run scans sc in a browser of kind: a session is provisioned, the page is
// loaded, the landmark is waited for, the target is located and audited.
// The session is released before Run returns, whatever happens.
//
// The returned error is about the scan itself. Use Report.Check to compare
// the violations with the expected count.
func (r *Runner) Run(ctx context.Context, kind webdriver.BrowserKind, sc Scenario) (_ *Report, err error) {
	sc = sc.WithDefaults()
	category := "Runner:" + kind.String()
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "scan", oteltrace.WithAttributes(
		attribute.String("scenario", sc.Name),
		attribute.String("browser", kind.String()),
		attribute.String("page", sc.Page),
	))
	defer func() { trace.End(span, err) }()

	if !kind.Valid() {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("remote browser type %s is not supported: %w", kind, webdriver.ErrUnsupportedBrowser),
			exitcodes.InvalidConfig)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	url, err := sc.URL()
	if err != nil {
		return nil, fmt.Errorf("resolving page: %w", err)
	}
	if !IsRemote(sc.Page) {
		if err := CheckFixture(r.fs, sc.Page, sc.Landmark, sc.Target); err != nil {
			return nil, err
		}
	}

	s, err := r.provision(ctx, kind)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := s.Release(); rerr != nil {
			r.logger.Warnf(category, "releasing session: %v", rerr)
		}
	}()

	if err := r.step(ctx, "navigate", func(ctx context.Context) error {
		return s.Navigate(ctx, url)
	}); err != nil {
		return nil, err
	}
	if err := r.step(ctx, "wait", func(ctx context.Context) error {
		_, err := s.WaitForReady(ctx, sc.Landmark)
		return err
	}); err != nil {
		return nil, err
	}

	var res *axe.Result
	err = r.step(ctx, "analyze", func(ctx context.Context) error {
		b := r.analyzer.Builder(s.WebDriver()).
			WithTags(sc.Tags...).
			WithRules(sc.Rules...).
			DisableRules(sc.DisabledRules...)
		var aerr error
		if sc.Target == "" {
			res, aerr = b.Analyze(ctx)
			return aerr
		}
		el, aerr := s.WaitForReady(ctx, sc.Target)
		if aerr != nil {
			return aerr
		}
		res, aerr = b.AnalyzeElement(ctx, el)
		return aerr
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Scenario: sc.Name,
		Browser:  kind,
		URL:      url,
		Target:   sc.Target,
		Expected: sc.Expected,
		Duration: types.Duration(time.Since(start)),
		Result:   res,
	}
	span.SetAttributes(attribute.Int("violations", report.Violations()))
	r.logger.Infof(category, "scenario:%q violations:%d", sc.Name, report.Violations())

	return report, nil
}

func (r *Runner) provision(ctx context.Context, kind webdriver.BrowserKind) (s *webdriver.Session, err error) {
	err = r.step(ctx, "provision", func(ctx context.Context) error {
		s, err = r.provisioner.Provision(ctx, kind)
		return err
	})
	return s, err
}

// step runs fn in a child span named name.
func (r *Runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, name)
	err := fn(ctx)
	trace.End(span, err)
	return err
}

// RunAll runs every scenario in each of its browsers, sequentially. It stops
// at the first scan error. Reports are returned for the scans that ran.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]*Report, error) {
	var reports []*Report
	for _, sc := range scenarios {
		sc = sc.WithDefaults()
		for _, kind := range sc.Browsers {
			rep, err := r.Run(ctx, kind, sc)
			if err != nil {
				return reports, err
			}
			reports = append(reports, rep)
		}
	}
	return reports, nil
}
