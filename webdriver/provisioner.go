package webdriver

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	slog "github.com/tebeka/selenium/log"

	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/storage"
)

// driverService is a running WebDriver server process.
type driverService interface {
	Stop() error
}

// Provisioner starts browser sessions.
type Provisioner struct {
	opts   *Options
	logger *log.Logger
	fs     afero.Fs
	getwd  func() (string, error)

	pickPort     func() (int, error)
	startService func(kind BrowserKind, path string, port int, out io.Writer) (driverService, error)
	newRemote    func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)
}

// NewProvisioner returns a Provisioner that starts the driver executables
// found through opts. A nil opts means NewOptions().
func NewProvisioner(opts *Options, logger *log.Logger) *Provisioner {
	if opts == nil {
		opts = NewOptions()
	}
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Provisioner{
		opts:         opts,
		logger:       logger,
		fs:           afero.NewOsFs(),
		getwd:        os.Getwd,
		pickPort:     pickUnusedPort,
		startService: startDriverService,
		newRemote:    selenium.NewRemote,
	}
}

// Provision starts a session of kind with the session policies applied:
// prompts are accepted, the browser sandbox and diagnostic output are off,
// asynchronous scripts may run for Options.ScriptTimeout and the window is
// maximized.
//
// An unsupported kind fails with ErrUnsupportedBrowser before anything is
// started. Any other failure is a *ProvisionError, and whatever was started
// is released before returning.
func (p *Provisioner) Provision(ctx context.Context, kind BrowserKind) (_ *Session, err error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("remote browser type %s is not supported: %w", kind, ErrUnsupportedBrowser)
	}
	if err := ctx.Err(); err != nil {
		return nil, &ProvisionError{Browser: kind, Op: "starting", Err: err}
	}
	category := "Provisioner:" + kind.String()

	var releasers []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(releasers) - 1; i >= 0; i-- {
			if rerr := releasers[i](); rerr != nil {
				p.logger.Warnf(category, "releasing after failure: %v", rerr)
			}
		}
	}()
	fail := func(op string, err error) error {
		p.logger.Errorf(category, "%s: %v", op, err)
		return &ProvisionError{Browser: kind, Op: op, Err: err}
	}

	path, err := p.opts.DriverPath(kind, p.getwd)
	if err != nil {
		return nil, fail("resolving driver path", err)
	}
	if _, err := p.fs.Stat(path); err != nil {
		return nil, fail("locating driver", err)
	}
	port, err := p.pickPort()
	if err != nil {
		return nil, fail("reserving port", err)
	}

	var flags map[string]any
	if kind == Chrome {
		flags = chromeFlags(p.opts)
		dir := &storage.Dir{}
		if err := dir.Make(p.opts.ProfileDir, flags["user-data-dir"]); err != nil {
			return nil, fail("creating profile directory", err)
		}
		releasers = append(releasers, dir.Cleanup)
		flags["user-data-dir"] = dir.Dir
	}

	caps, err := capabilities(kind, p.opts, flags)
	if err != nil {
		return nil, fail("building capabilities", err)
	}

	out := p.logger.DriverOutput(category)
	releasers = append(releasers, out.Close)
	p.logger.Debugf(category, "starting %s on port %d", path, port)
	svc, err := p.startService(kind, path, port, out)
	if err != nil {
		return nil, fail("starting driver service", err)
	}
	releasers = append(releasers, svc.Stop)

	wd, err := p.newRemote(caps, urlPrefix(kind, port))
	if err != nil {
		return nil, fail("creating session", err)
	}
	releasers = append(releasers, wd.Quit)

	if err := wd.SetAsyncScriptTimeout(p.opts.ScriptTimeout); err != nil {
		return nil, fail("setting script timeout", err)
	}
	if err := wd.MaximizeWindow(""); err != nil {
		return nil, fail("maximizing window", err)
	}

	opts := []SessionOption{WithWaitPolicy(p.opts.Wait), WithLogger(p.logger)}
	// the session quits wd itself
	for _, r := range releasers[:len(releasers)-1] {
		opts = append(opts, WithReleaser(r))
	}
	s := NewSession(kind, wd, opts...)
	p.logger.Infof(category, "session started")

	return s, nil
}

// capabilities builds the session capabilities of kind. chromeArgs are the
// Chrome flags, unused for other browsers.
func capabilities(kind BrowserKind, opts *Options, chromeArgs map[string]any) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{
		"browserName":             kind.browserName(),
		"unhandledPromptBehavior": "accept",
	}
	switch kind {
	case Chrome:
		args, err := parseArgs(chromeArgs)
		if err != nil {
			return nil, err
		}
		caps.AddChrome(chrome.Capabilities{
			Args:            args,
			ExcludeSwitches: []string{"enable-logging", "enable-automation"},
			W3C:             true,
		})
		caps.SetLogLevel(slog.Browser, slog.Off)
		caps.SetLogLevel(slog.Driver, slog.Off)
		caps.SetLogLevel(slog.Performance, slog.Off)
	case Firefox:
		caps.AddFirefox(firefox.Capabilities{
			Args:  firefoxArgs(opts),
			Prefs: firefoxPrefs(),
			Log:   &firefox.Log{Level: firefox.Fatal},
		})
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrUnsupportedBrowser)
	}
	return caps, nil
}

func urlPrefix(kind BrowserKind, port int) string {
	if kind == Chrome {
		return fmt.Sprintf("http://localhost:%d/wd/hub", port)
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func startDriverService(kind BrowserKind, path string, port int, out io.Writer) (driverService, error) {
	var (
		svc *selenium.Service
		err error
	)
	switch kind {
	case Chrome:
		svc, err = selenium.NewChromeDriverService(path, port, selenium.Output(out))
	case Firefox:
		svc, err = selenium.NewGeckoDriverService(path, port, selenium.Output(out))
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrUnsupportedBrowser)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
