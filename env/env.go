// Package env reads the a11yscan settings from the process environment.
// It is the only place where environment variables are looked up.
package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"

	"github.com/grafana/a11yscan/lib/types"
)

// Environment variable names.
const (
	ChromeDriverDir = "ChromeWebDriver"
	GeckoDriverDir  = "GeckoWebDriver"
	Headless        = "A11YSCAN_HEADLESS"
	AxeSource       = "A11YSCAN_AXE_SOURCE"
	LogLevel        = "A11YSCAN_LOG"
	LogCaller       = "A11YSCAN_CALLER"
	ReadyTimeout    = "A11YSCAN_TIMEOUT"
	BrowserArgs     = "A11YSCAN_BROWSER_ARGS"
	IgnoreArgs      = "A11YSCAN_IGNORE_DEFAULT_ARGS"
)

// names are the variables Load reads, in their documented spelling.
var names = []string{
	ChromeDriverDir, GeckoDriverDir, Headless, AxeSource,
	LogLevel, LogCaller, ReadyTimeout, BrowserArgs, IgnoreArgs,
}

// LookupFunc defines a function to look up a key from the environment.
type LookupFunc func(key string) (string, bool)

// Lookup is a LookupFunc over the environment of the current process.
// Key matching ignores case so that the driver directory variables can be
// spelled the way CI agents export them (ChromeWebDriver, CHROMEWEBDRIVER).
func Lookup() LookupFunc {
	return CaseInsensitive(os.Environ())
}

// CaseInsensitive returns a LookupFunc over environ, a list of KEY=value
// entries, matching keys regardless of case. An exact match wins over a
// case-insensitive one.
func CaseInsensitive(environ []string) LookupFunc {
	exact := make(map[string]string, len(environ))
	folded := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		exact[k] = v
		if _, dup := folded[strings.ToUpper(k)]; !dup {
			folded[strings.ToUpper(k)] = v
		}
	}
	return func(key string) (string, bool) {
		if v, ok := exact[key]; ok {
			return v, true
		}
		v, ok := folded[strings.ToUpper(key)]
		return v, ok
	}
}

// Config is the environment provided configuration.
type Config struct {
	ChromeDriverDir null.String        `json:"chromeDriverDir" envconfig:"ChromeWebDriver"`
	GeckoDriverDir  null.String        `json:"geckoDriverDir" envconfig:"GeckoWebDriver"`
	Headless        null.Bool          `json:"headless" envconfig:"A11YSCAN_HEADLESS"`
	AxeSource       null.String        `json:"axeSource" envconfig:"A11YSCAN_AXE_SOURCE"`
	LogLevel        null.String        `json:"logLevel" envconfig:"A11YSCAN_LOG"`
	LogCaller       null.Bool          `json:"logCaller" envconfig:"A11YSCAN_CALLER"`
	ReadyTimeout    types.NullDuration `json:"readyTimeout" envconfig:"A11YSCAN_TIMEOUT"`
	BrowserArgs     []string           `json:"browserArgs" envconfig:"A11YSCAN_BROWSER_ARGS"`
	IgnoreArgs      []string           `json:"ignoreDefaultArgs" envconfig:"A11YSCAN_IGNORE_DEFAULT_ARGS"`
}

// Load processes the environment through lookup into a Config.
// Unset variables stay invalid (null). A variable set in its documented
// spelling (ChromeWebDriver) wins over other spellings (CHROMEWEBDRIVER).
func Load(lookup LookupFunc) (Config, error) {
	var conf Config
	if lookup == nil {
		lookup = Lookup()
	}
	if err := envconfig.Process("", &conf, canonical(lookup)); err != nil {
		return conf, fmt.Errorf("parsing environment: %w", err)
	}
	return conf, nil
}

// canonical wraps lookup so that keys envconfig asks for in upper case are
// first looked up in their documented spelling.
func canonical(lookup LookupFunc) LookupFunc {
	byUpper := make(map[string]string, len(names))
	for _, n := range names {
		byUpper[strings.ToUpper(n)] = n
	}
	return func(key string) (string, bool) {
		if n, ok := byUpper[strings.ToUpper(key)]; ok && n != key {
			if v, ok := lookup(n); ok {
				return v, true
			}
		}
		return lookup(key)
	}
}

// Apply returns c overridden by the valid fields of cfg.
func (c Config) Apply(cfg Config) Config {
	if cfg.ChromeDriverDir.Valid && cfg.ChromeDriverDir.String != "" {
		c.ChromeDriverDir = cfg.ChromeDriverDir
	}
	if cfg.GeckoDriverDir.Valid && cfg.GeckoDriverDir.String != "" {
		c.GeckoDriverDir = cfg.GeckoDriverDir
	}
	if cfg.Headless.Valid {
		c.Headless = cfg.Headless
	}
	if cfg.AxeSource.Valid && cfg.AxeSource.String != "" {
		c.AxeSource = cfg.AxeSource
	}
	if cfg.LogLevel.Valid && cfg.LogLevel.String != "" {
		c.LogLevel = cfg.LogLevel
	}
	if cfg.LogCaller.Valid {
		c.LogCaller = cfg.LogCaller
	}
	if cfg.ReadyTimeout.Valid {
		c.ReadyTimeout = cfg.ReadyTimeout
	}
	if len(cfg.BrowserArgs) > 0 {
		c.BrowserArgs = cfg.BrowserArgs
	}
	if len(cfg.IgnoreArgs) > 0 {
		c.IgnoreArgs = cfg.IgnoreArgs
	}
	return c
}
