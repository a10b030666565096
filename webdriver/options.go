package webdriver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grafana/a11yscan/env"
)

// Defaults applied to every provisioned session.
const (
	DefaultScriptTimeout = 20 * time.Second
	DefaultReadyTimeout  = 20 * time.Second
	// DefaultPollInterval is how often the waiter looks for an element.
	DefaultPollInterval = 500 * time.Millisecond
)

// Options configures a Provisioner.
type Options struct {
	// DriverDirs holds the directory containing the driver executable of a
	// browser. Browsers without an entry use the working directory.
	DriverDirs map[BrowserKind]string
	// Headless runs the browsers without a display.
	Headless bool
	// Args are extra Chrome command line arguments in the "name[=value]" form.
	Args []string
	// IgnoreDefaultArgs drops default Chrome arguments by name.
	IgnoreDefaultArgs []string
	// ProfileDir is where temporary Chrome profiles are created.
	// Empty means the OS temporary directory.
	ProfileDir string
	// ScriptTimeout bounds asynchronous scripts, including the audit.
	ScriptTimeout time.Duration
	// Wait is the policy of Session.WaitForReady.
	Wait WaitPolicy
}

// NewOptions returns the default options.
func NewOptions() *Options {
	return &Options{
		DriverDirs:    make(map[BrowserKind]string),
		ScriptTimeout: DefaultScriptTimeout,
		Wait:          DefaultWaitPolicy(),
	}
}

// OptionsFromEnv returns the default options overridden by conf.
func OptionsFromEnv(conf env.Config) *Options {
	o := NewOptions()
	if conf.ChromeDriverDir.Valid && conf.ChromeDriverDir.String != "" {
		o.DriverDirs[Chrome] = conf.ChromeDriverDir.String
	}
	if conf.GeckoDriverDir.Valid && conf.GeckoDriverDir.String != "" {
		o.DriverDirs[Firefox] = conf.GeckoDriverDir.String
	}
	o.Headless = conf.Headless.ValueOrZero()
	o.Wait.Timeout = conf.ReadyTimeout.ValueOr(o.Wait.Timeout)
	o.Args = conf.BrowserArgs
	o.IgnoreDefaultArgs = conf.IgnoreArgs
	return o
}

// DriverPath returns the path of the driver executable for kind. Relative
// and missing directories are resolved against getwd.
func (o *Options) DriverPath(kind BrowserKind, getwd func() (string, error)) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%s: %w", kind, ErrUnsupportedBrowser)
	}
	if getwd == nil {
		getwd = os.Getwd
	}
	dir := o.DriverDirs[kind]
	if !filepath.IsAbs(dir) {
		cwd, err := getwd()
		if err != nil {
			return "", fmt.Errorf("getting the working directory: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	return filepath.Join(dir, kind.DriverExecutable()), nil
}

func driverDirEnv(kind BrowserKind) string {
	if kind == Firefox {
		return env.GeckoDriverDir
	}
	return env.ChromeDriverDir
}
