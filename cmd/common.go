package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"github.com/grafana/a11yscan/axe"
	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/env"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/lib/types"
	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/scenario"
	"github.com/grafana/a11yscan/storage"
	"github.com/grafana/a11yscan/trace"
	"github.com/grafana/a11yscan/webdriver"
)

// runtimeFlags are the flags shared by the commands that start browsers.
type runtimeFlags struct {
	browsers  []string
	headless  bool
	axeSource string
	timeout   time.Duration
	report    string
}

func (f *runtimeFlags) flagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringSliceVarP(&f.browsers, "browser", "b", nil,
		"browsers to scan with, possible values are chrome,firefox")
	flags.BoolVar(&f.headless, "headless", false, "run the browsers without a display")
	flags.StringVar(&f.axeSource, "axe-source", "",
		"path or http(s) URL of the axe-core script (default \""+axe.DefaultSource+"\")")
	flags.DurationVar(&f.timeout, "timeout", webdriver.DefaultReadyTimeout,
		"how long to wait for the page elements")
	flags.StringVarP(&f.report, "report", "r", "", "write the JSON reports to this file, compressed when it ends in .gz, .zst or .br")
	return flags
}

// config returns the environment configuration overridden by the flags
// that were set.
func (f *runtimeFlags) config(gs *state.GlobalState, flags *pflag.FlagSet) (env.Config, error) {
	conf, err := env.Load(gs.Lookup)
	if err != nil {
		return conf, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	var cli env.Config
	if flags.Changed("headless") {
		cli.Headless = null.BoolFrom(f.headless)
	}
	if flags.Changed("timeout") {
		if f.timeout <= 0 {
			return conf, errext.WithExitCodeIfNone(
				fmt.Errorf("timeout must be positive, got %s", f.timeout), exitcodes.InvalidConfig)
		}
		cli.ReadyTimeout = types.NullDurationFrom(f.timeout)
	}
	cli.AxeSource = null.StringFrom(f.axeSource)
	return conf.Apply(cli), nil
}

// browserKinds parses the --browser values. No value means every browser.
func (f *runtimeFlags) browserKinds() ([]webdriver.BrowserKind, error) {
	if len(f.browsers) == 0 {
		return nil, nil
	}
	kinds := make([]webdriver.BrowserKind, 0, len(f.browsers))
	for _, name := range f.browsers {
		kind, err := webdriver.ParseBrowserKind(strings.TrimSpace(name))
		if err != nil {
			return nil, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// scanner runs scenarios with the settings of a command.
type scanner struct {
	gs     *state.GlobalState
	runner *scenario.Runner
	tp     *trace.TracerProvider
	logger *log.Logger
}

func newScanner(ctx context.Context, gs *state.GlobalState, conf env.Config, command string) (*scanner, error) {
	logger := log.New(gs.Logger, false, nil)

	tp, err := trace.TracerProviderFromConfigLine(ctx, gs.Flags.TracesOutput)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(fmt.Errorf("traces output: %w", err), exitcodes.InvalidConfig)
	}
	tracer := trace.NewTracer(tp, map[string]string{"command": command})

	opts := webdriver.OptionsFromEnv(conf)
	for _, kind := range webdriver.Kinds() {
		if opts.DriverDirs[kind], err = resolvePath(gs, opts.DriverDirs[kind]); err != nil {
			return nil, err
		}
	}

	axeSource, fallback := conf.AxeSource.ValueOrZero(), ""
	if axeSource == "" {
		axeSource, fallback = axe.DefaultSource, axe.DefaultURL
	}
	if !strings.Contains(axeSource, "://") {
		if axeSource, err = resolvePath(gs, axeSource); err != nil {
			return nil, err
		}
	}
	source := axe.NewSource(axeSource, gs.FS, gs.HTTPClient)
	if fallback != "" {
		source.WithFallback(fallback)
	}
	analyzer := axe.NewAnalyzer(source, logger)

	runner := scenario.NewRunner(gs.NewProvisioner(opts, logger), analyzer, logger,
		scenario.WithTracer(tracer), scenario.WithFs(gs.FS))

	return &scanner{gs: gs, runner: runner, tp: tp, logger: logger}, nil
}

// scan runs the scenarios, prints their summary and writes the reports.
// The returned error carries the exit code of the first failure.
func (s *scanner) scan(ctx context.Context, scenarios []scenario.Scenario, reportPath string) (err error) {
	defer func() {
		if serr := s.tp.Shutdown(context.Background()); serr != nil {
			s.gs.Logger.WithError(serr).Warn("Couldn't flush the traces")
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stopSignalHandling := handleTestAbortSignals(s.gs, func(sig os.Signal) {
		s.gs.Logger.WithField("sig", sig).Warn("Stopping the scan, releasing the browsers...")
		cancel(&errext.InterruptError{Reason: fmt.Sprintf("scan interrupted by signal %s", sig)})
	}, func(sig os.Signal) {
		s.gs.Logger.WithField("sig", sig).Error("Aborting the scan without releasing the browsers")
	})
	defer stopSignalHandling()

	reports, runErr := s.runner.RunAll(runCtx, scenarios)
	if cause := context.Cause(runCtx); runErr != nil && errext.IsInterruptError(cause) {
		runErr = fmt.Errorf("%w: %w", cause, runErr)
	}
	var aerr *axe.Error
	if errors.As(runErr, &aerr) && aerr.Op == "loading engine" {
		runErr = errext.WithHint(runErr,
			fmt.Sprintf("set --axe-source or %s to the location of the axe-core script", env.AxeSource))
	}
	printSummary(s.gs, reports)

	if reportPath != "" && len(reports) > 0 {
		path, err := resolvePath(s.gs, reportPath)
		if err != nil {
			return err
		}
		p := &storage.LocalFilePersister{Fs: s.gs.FS}
		if err := scenario.WriteReports(ctx, p, path, reports); err != nil {
			return errors.Join(runErr, err)
		}
		s.gs.Logger.Debugf("Reports written to %s", path)
	}
	if runErr != nil {
		return runErr
	}

	var failures []error
	for _, rep := range reports {
		if err := rep.Check(); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// handleTestAbortSignals calls gracefulStopHandler on the first interrupt
// signal. A second signal calls onHardStop and exits the process right away.
func handleTestAbortSignals(gs *state.GlobalState, gracefulStopHandler, onHardStop func(os.Signal)) (stop func()) {
	gs.Logger.Debug("Trapping interrupt signals so a11yscan can release the browsers...")
	sigC := make(chan os.Signal, 2)
	done := make(chan struct{})
	gs.SignalNotify(sigC, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigC:
			gracefulStopHandler(sig)
		case <-done:
			return
		}

		select {
		case sig := <-sigC:
			if onHardStop != nil {
				onHardStop(sig)
			}
			gs.OSExit(int(exitcodes.ExternalAbort))
		case <-done:
			return
		}
	}()

	return func() {
		gs.Logger.Debug("Releasing signal trap...")
		close(done)
		gs.SignalStop(sigC)
	}
}

// resolvePath makes a relative path absolute against the working directory.
func resolvePath(gs *state.GlobalState, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	cwd, err := gs.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting the working directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}
