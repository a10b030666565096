package webdriver

import (
	"fmt"
	"sort"
	"strings"
)

// chromeFlags returns the Chrome command line flags for a session.
// Values are either strings ("--name=value") or booleans ("--name" when true).
// A user-data-dir is only present when opts.Args sets one.
func chromeFlags(opts *Options) map[string]any {
	f := map[string]any{
		// log-level 3 is fatal only
		"log-level":  "3",
		"no-sandbox": true,
		"silent":     true,

		"disable-background-networking": true,
		"disable-default-apps":          true,
		"disable-dev-shm-usage":         true,
		"disable-extensions":            true,
		"force-color-profile":           "srgb",
		"headless":                      opts.Headless,
		"no-default-browser-check":      true,
		"no-first-run":                  true,
		"password-store":                "basic",
		"use-mock-keychain":             true,
	}
	if opts.Headless {
		// a maximized headless window is only as big as its initial size
		f["window-size"] = "1920,1080"
		f["hide-scrollbars"] = true
		f["mute-audio"] = true
	}
	ignoreDefaultArgsFlags(f, opts.IgnoreDefaultArgs)
	setFlagsFromArgs(f, opts.Args)

	return f
}

// ignoreDefaultArgsFlags ignores any flags in the provided slice.
func ignoreDefaultArgsFlags(flags map[string]any, toIgnore []string) {
	for _, name := range toIgnore {
		delete(flags, strings.TrimPrefix(name, "--"))
	}
}

// setFlagsFromArgs fills flags by parsing the args slice.
// Arguments are in the "name=value" or "name" form, with an optional "--" prefix.
func setFlagsFromArgs(flags map[string]any, args []string) {
	var argname, argval string
	for _, arg := range args {
		pair := strings.SplitN(arg, "=", 2)
		argname = strings.TrimPrefix(strings.TrimSpace(pair[0]), "--")
		if argname == "" {
			continue
		}
		if len(pair) == 1 {
			flags[argname] = true
			continue
		}
		argval = trimQuotes(strings.TrimSpace(pair[1]))
		flags[argname] = argval
	}
}

// parseArgs turns flags into sorted command line arguments.
func parseArgs(flags map[string]any) ([]string, error) {
	args := make([]string, 0, len(flags))
	for name, value := range flags {
		switch value := value.(type) {
		case string:
			args = append(args, fmt.Sprintf("--%s=%s", name, value))
		case bool:
			if value {
				args = append(args, fmt.Sprintf("--%s", name))
			}
		default:
			return nil, fmt.Errorf(`invalid browser command line flag: "%s=%v"`, name, value)
		}
	}
	sort.Strings(args)

	return args, nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if c := s[len(s)-1]; s[0] == c && (c == '"' || c == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func firefoxArgs(opts *Options) []string {
	if !opts.Headless {
		return nil
	}
	return []string{"-headless", "--width=1920", "--height=1080"}
}

func firefoxPrefs() map[string]any {
	return map[string]any{
		"security.sandbox.content.level":             0,
		"browser.shell.checkDefaultBrowser":          false,
		"datareporting.policy.dataSubmissionEnabled": false,
		"toolkit.telemetry.reportingpolicy.firstRun": false,
		"devtools.console.stdout.content":            false,
	}
}
