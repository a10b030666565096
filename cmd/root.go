// Package cmd implements the a11yscan command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/lib/consts"
	"github.com/grafana/a11yscan/log"
)

const waitLoggerCloseTimeout = time.Second * 5

// This is to keep all fields needed for the main/root a11yscan command
type rootCommand struct {
	globalState *state.GlobalState

	cmd            *cobra.Command
	stopLoggersCh  chan struct{}
	loggersWg      chan struct{}
	loggerIsRemote bool
}

func newRootCommand(gs *state.GlobalState) *rootCommand {
	c := &rootCommand{
		globalState:   gs,
		stopLoggersCh: make(chan struct{}),
	}
	// the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:               gs.BinaryName,
		Short:             "accessibility scans in real browsers",
		Long:              "\n" + color.New(color.FgCyan).Sprint(consts.Banner()),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
		Version:           consts.FullVersion(),
	}

	rootCmd.PersistentFlags().AddFlagSet(rootCmdPersistentFlagSet(gs))
	rootCmd.SetArgs(gs.CmdArgs[1:])
	rootCmd.SetOut(gs.Stdout)
	rootCmd.SetErr(gs.Stderr) // TODO: use gs.logger.WriterLevel(logrus.ErrorLevel)?
	rootCmd.SetIn(strings.NewReader(""))

	rootCmd.AddCommand(
		getCmdScan(gs),
		getCmdRun(gs),
		getCmdVersion(gs),
	)

	c.cmd = rootCmd
	return c
}

func (c *rootCommand) persistentPreRunE(_ *cobra.Command, _ []string) error {
	err := c.setupLoggers(c.stopLoggersCh)
	if err != nil {
		return err
	}
	select {
	case <-c.loggersWg:
	default:
		c.loggerIsRemote = true
	}

	if c.globalState.Flags.NoColor {
		c.globalState.Stdout.DisableColors()
		c.globalState.Stderr.DisableColors()
	}
	stdlog.SetOutput(c.globalState.Logger.Writer())
	c.globalState.Logger.Debugf("a11yscan version: v%s", consts.FullVersion())
	return nil
}

func (c *rootCommand) execute() {
	ctx, cancel := context.WithCancel(c.globalState.Ctx)
	c.globalState.Ctx = ctx
	defer cancel()

	err := c.cmd.Execute()
	if err == nil {
		cancel()
		c.stopLoggers()
		return
	}

	exitCode := -1
	if code, ok := errext.ExitCodeOf(err); ok {
		exitCode = int(code)
	}

	errText, fields := errext.Format(err)
	c.globalState.Logger.WithFields(fields).Error(errText)
	if c.loggerIsRemote {
		c.globalState.FallbackLogger.WithFields(fields).Error(errText)
	}
	cancel()
	c.stopLoggers()
	c.globalState.OSExit(exitCode)
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	gs := state.NewGlobalState(context.Background())

	newRootCommand(gs).execute()
}

func (c *rootCommand) stopLoggers() {
	if c.stopLoggersCh == nil {
		return
	}
	close(c.stopLoggersCh)
	c.stopLoggersCh = nil
	if c.loggersWg == nil {
		return
	}
	select {
	case <-c.loggersWg:
	case <-time.After(waitLoggerCloseTimeout):
		c.globalState.FallbackLogger.Errorf("The logger didn't stop in %s", waitLoggerCloseTimeout)
	}
}

func rootCmdPersistentFlagSet(gs *state.GlobalState) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	// TODO: refactor the flags to not write to the global state directly
	flags.StringVar(&gs.Flags.LogOutput, "log-output", gs.Flags.LogOutput,
		"change the output for a11yscan logs, possible values are stderr,stdout,none,file[=./path.fileformat]")
	flags.Lookup("log-output").DefValue = gs.DefaultFlags.LogOutput

	flags.StringVar(&gs.Flags.LogFormat, "log-format", gs.Flags.LogFormat,
		"log output format, possible values are text,json,raw,logstash")
	flags.Lookup("log-format").DefValue = gs.DefaultFlags.LogFormat

	flags.StringVar(&gs.Flags.TracesOutput, "traces-output", gs.Flags.TracesOutput,
		"set the output for the scan traces, e.g. otel=http://127.0.0.1:4318/v1/traces")
	flags.Lookup("traces-output").DefValue = gs.DefaultFlags.TracesOutput

	flags.BoolVar(&gs.Flags.NoColor, "no-color", gs.Flags.NoColor, "disable colored output")
	flags.Lookup("no-color").DefValue = fmt.Sprint(gs.DefaultFlags.NoColor)

	flags.BoolVarP(&gs.Flags.Verbose, "verbose", "v", gs.DefaultFlags.Verbose, "enable verbose logging")
	return flags
}

// The returned channel will be closed when the logger has finished flushing
// and closing its output, after stop is closed. It is closed right away if
// the logger writes synchronously.
func (c *rootCommand) setupLoggers(stop <-chan struct{}) error {
	c.loggersWg = make(chan struct{})
	ready := true
	defer func() {
		if ready {
			close(c.loggersWg)
		}
	}()

	gs := c.globalState
	conf, err := loggerEnvConfig(gs)
	if err != nil {
		return err
	}
	if gs.Flags.Verbose {
		gs.Logger.SetLevel(logrus.DebugLevel)
	} else if conf.LogLevel.Valid && conf.LogLevel.String != "" {
		lvl, err := logrus.ParseLevel(conf.LogLevel.String)
		if err != nil {
			return errext.WithExitCodeIfNone(fmt.Errorf("invalid log level: %w", err), exitcodes.InvalidConfig)
		}
		gs.Logger.SetLevel(lvl)
	}

	switch line := gs.Flags.LogOutput; {
	case line == "stderr":
		gs.Logger.SetOutput(gs.Stderr)
	case line == "stdout":
		gs.Logger.SetOutput(gs.Stdout)
	case line == "none":
		gs.Logger.SetOutput(io.Discard)
	case strings.HasPrefix(line, "file"):
		ready = false
		hookCtx, cancel := context.WithCancel(gs.Ctx)
		go func() {
			<-stop
			cancel()
		}()
		hook, err := log.FileHookFromConfigLine(hookCtx, gs.FS, gs.Getwd, gs.FallbackLogger, line, c.loggersWg)
		if err != nil {
			cancel()
			ready = true
			return errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
		}
		gs.Logger.AddHook(hook)
		gs.Logger.SetOutput(io.Discard) // don't output to anywhere else
	default:
		return errext.WithExitCodeIfNone(
			fmt.Errorf("unsupported log output '%s'", line), exitcodes.InvalidConfig)
	}

	switch gs.Flags.LogFormat {
	case "raw":
		gs.Logger.SetFormatter(&RawFormatter{})
		gs.Logger.Debug("Logger format: RAW")
	case "json":
		gs.Logger.SetFormatter(&logrus.JSONFormatter{})
		gs.Logger.Debug("Logger format: JSON")
	case "logstash":
		gs.Logger.SetFormatter(&LogstashJSONFormatter{})
		gs.Logger.Debug("Logger format: LOGSTASH")
	case "", "text":
		if conf.LogCaller.Bool {
			log.New(gs.Logger, false, nil).ReportCaller()
			break
		}
		gs.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   gs.Stderr.IsTTY,
			DisableColors: gs.Flags.NoColor,
		})
		gs.Logger.Debug("Logger format: TEXT")
	default:
		return errext.WithExitCodeIfNone(
			fmt.Errorf("unsupported log format '%s'", gs.Flags.LogFormat), exitcodes.InvalidConfig)
	}
	gs.Logger.SetReportCaller(conf.LogCaller.Bool)
	return nil
}
