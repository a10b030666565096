// Package state holds what the a11yscan commands share: the process
// environment, the outputs and the loggers.
package state

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/grafana/a11yscan/env"
	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/scenario"
	"github.com/grafana/a11yscan/webdriver"
)

// GlobalState contains the GlobalOptions and accessors for most of the
// global process-external state like CLI arguments, env vars and standard
// input, output and error. Tests replace these with fakes.
type GlobalState struct {
	Ctx context.Context

	FS         afero.Fs
	Getwd      func() (string, error)
	BinaryName string
	CmdArgs    []string
	Environ    []string
	Lookup     env.LookupFunc
	HTTPClient *http.Client

	DefaultFlags, Flags GlobalOptions

	OutMutex       *sync.Mutex
	Stdout, Stderr *ConsoleWriter

	OSExit       func(int)
	SignalNotify func(chan<- os.Signal, ...os.Signal)
	SignalStop   func(chan<- os.Signal)

	Logger         *logrus.Logger
	FallbackLogger logrus.FieldLogger

	// NewProvisioner starts the browser sessions of the scans.
	NewProvisioner func(*webdriver.Options, *log.Logger) scenario.Provisioner
}

// NewGlobalState returns the state of the current process.
func NewGlobalState(ctx context.Context) *GlobalState {
	isDumbTerm := os.Getenv("TERM") == "dumb"
	stdoutTTY := !isDumbTerm && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	stderrTTY := !isDumbTerm && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	outMutex := &sync.Mutex{}
	stdout := &ConsoleWriter{Writer: colorable.NewColorableStdout(), IsTTY: stdoutTTY, Mutex: outMutex}
	stderr := &ConsoleWriter{Writer: colorable.NewColorableStderr(), IsTTY: stderrTTY, Mutex: outMutex}

	environ := os.Environ()
	lookup := env.CaseInsensitive(environ)
	defaultFlags := GetDefaultGlobalOptions()
	globalFlags := consolidateGlobalFlags(defaultFlags, lookup)

	logger := &logrus.Logger{
		Out: stderr,
		Formatter: &logrus.TextFormatter{
			ForceColors:   stderrTTY,
			DisableColors: !stderrTTY || globalFlags.NoColor,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}

	return &GlobalState{
		Ctx:            ctx,
		FS:             afero.NewOsFs(),
		Getwd:          os.Getwd,
		BinaryName:     "a11yscan",
		CmdArgs:        os.Args,
		Environ:        environ,
		Lookup:         lookup,
		HTTPClient:     http.DefaultClient,
		DefaultFlags:   defaultFlags,
		Flags:          globalFlags,
		OutMutex:       outMutex,
		Stdout:         stdout,
		Stderr:         stderr,
		OSExit:         os.Exit,
		SignalNotify:   signal.Notify,
		SignalStop:     signal.Stop,
		Logger:         logger,
		FallbackLogger: &logrus.Logger{
			Out:       stderr,
			Formatter: new(logrus.TextFormatter),
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.InfoLevel,
		},
		NewProvisioner: func(opts *webdriver.Options, logger *log.Logger) scenario.Provisioner {
			return webdriver.NewProvisioner(opts, logger)
		},
	}
}
