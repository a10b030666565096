package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/webdriver"
)

func TestScanSamplePage(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.CmdArgs = []string{"a11yscan", "scan", "--expect", "3", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	p := ts.provisioner
	assert.Equal(t, []webdriver.BrowserKind{webdriver.Chrome, webdriver.Firefox}, p.kinds)
	require.Len(t, p.sessions, 2)
	for i, s := range p.sessions {
		assert.True(t, s.Released())
		wd := p.drivers[i]
		assert.Equal(t, 1, wd.Quits())
		assert.True(t, strings.HasPrefix(wd.URL(), "file://"), wd.URL())
		assert.True(t, strings.HasSuffix(wd.URL(), "/samplePage.html"), wd.URL())
		assert.Contains(t, wd.Scripts(), testAxeScript)
	}

	out := ts.stdOut.String()
	assert.Contains(t, out, "samplePage [Chrome]")
	assert.Contains(t, out, "samplePage [Firefox]")
	assert.Contains(t, out, "3 violations, expected 3")
	assert.Contains(t, out, "link-name")
	assert.Contains(t, out, "2/2 scans passed")
	assert.NotContains(t, out, "\x1b[")
}

func TestScanRemotePage(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.CmdArgs = []string{"a11yscan", "scan", "-b", "chrome", "HTTP://localhost:8080/samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	require.Len(t, ts.provisioner.drivers, 1)
	assert.Equal(t, "http://localhost:8080/samplePage.html", ts.provisioner.drivers[0].URL())
}

func TestScanViolationsMismatch(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.ViolationsMismatch)
	ts.provisioner.violations = []string{"image-alt", "list"}
	ts.CmdArgs = []string{"a11yscan", "scan", "-b", "firefox", "--expect", "3", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdOut.String(), "0/1 scans passed")
	assert.Contains(t, ts.stdErr.String(), "expected 3 violations, got 2 (image-alt, list)")
	require.Len(t, ts.provisioner.sessions, 1)
	assert.True(t, ts.provisioner.sessions[0].Released())
}

func TestScanUnsupportedBrowser(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.InvalidConfig)
	ts.CmdArgs = []string{"a11yscan", "scan", "--browser", "Safari", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdErr.String(), `remote browser type \"Safari\" is not supported`)
	assert.Empty(t, ts.provisioner.kinds)
}

func TestScanProvisionError(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.ProvisioningFailed)
	ts.provisioner.err = &webdriver.ProvisionError{
		Browser: webdriver.Chrome,
		Op:      "locating driver",
		Err:     os.ErrNotExist,
	}
	ts.CmdArgs = []string{"a11yscan", "scan", "--browser", "chrome", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdErr.String(), "provisioning Chrome: locating driver")
	assert.Contains(t, ts.stdErr.String(), "set ChromeWebDriver to the directory containing chromedriver")
	assert.Empty(t, ts.stdOut.String())
}

func TestScanMissingFixtureElement(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.InvalidConfig)
	ts.CmdArgs = []string{"a11yscan", "scan", "--target", "table", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdErr.String(), "table")
	assert.Empty(t, ts.provisioner.kinds)
}

func TestScanArgs(t *testing.T) {
	t.Parallel()

	for name, args := range map[string][]string{
		"no_page":      {"scan"},
		"two_pages":    {"scan", "a.html", "b.html"},
		"bad_timeout":  {"scan", "--timeout", "0s", "samplePage.html"},
		"missing_page": {"scan", "missing.html"},
	} {
		args := args
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts := newGlobalTestState(t)
			ts.expectedExitCode = int(exitcodes.InvalidConfig)
			ts.CmdArgs = append([]string{"a11yscan"}, args...)
			newRootCommand(ts.GlobalState).execute()
			assert.Empty(t, ts.provisioner.kinds)
		})
	}
}

func TestScanOptionsFromEnvAndFlags(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.Environ = []string{
		"CHROMEWEBDRIVER=drivers/chrome",
		"GeckoWebDriver=/opt/gecko",
		"A11YSCAN_HEADLESS=true",
		"A11YSCAN_TIMEOUT=5s",
		"A11YSCAN_BROWSER_ARGS=lang=de-DE,window-size=1280x720",
		"A11YSCAN_IGNORE_DEFAULT_ARGS=silent",
	}
	ts.CmdArgs = []string{"a11yscan", "scan", "--timeout", "7s", "-b", "chrome", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	opts := ts.provisioner.opts
	require.NotNil(t, opts)
	assert.Equal(t, filepath.Join(ts.cwd, "drivers", "chrome"), opts.DriverDirs[webdriver.Chrome])
	if filepath.IsAbs("/opt/gecko") {
		assert.Equal(t, "/opt/gecko", opts.DriverDirs[webdriver.Firefox])
	}
	assert.True(t, opts.Headless)
	assert.Equal(t, 7*time.Second, opts.Wait.Timeout)
	assert.Equal(t, webdriver.DefaultScriptTimeout, opts.ScriptTimeout)
	assert.Equal(t, []string{"lang=de-DE", "window-size=1280x720"}, opts.Args)
	assert.Equal(t, []string{"silent"}, opts.IgnoreDefaultArgs)
}

func TestScanHeadlessFlagOverridesEnv(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.Environ = []string{"A11YSCAN_HEADLESS=true"}
	ts.CmdArgs = []string{"a11yscan", "scan", "--headless=false", "-b", "chrome", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	require.NotNil(t, ts.provisioner.opts)
	assert.False(t, ts.provisioner.opts.Headless)
	assert.Equal(t, ts.cwd, ts.provisioner.opts.DriverDirs[webdriver.Firefox]+string(filepath.Separator))
}

func TestScanMissingAxeSource(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.AnalysisFailed)
	ts.CmdArgs = []string{"a11yscan", "scan", "-b", "chrome", "--axe-source", "vendor/axe.js", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdErr.String(), "axe.js")
	assert.Contains(t, ts.stdErr.String(), "set --axe-source or A11YSCAN_AXE_SOURCE")
	require.Len(t, ts.provisioner.sessions, 1)
	assert.True(t, ts.provisioner.sessions[0].Released())
}

func TestScanReport(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.CmdArgs = []string{
		"a11yscan", "scan", "--name", "sample", "--tag", "wcag2a,wcag21a",
		"--report", "out/reports.json", "samplePage.html",
	}
	newRootCommand(ts.GlobalState).execute()

	data, err := afero.ReadFile(ts.FS, filepath.Join(ts.cwd, "out", "reports.json"))
	require.NoError(t, err)
	var reports []struct {
		Scenario string `json:"scenario"`
		Browser  string `json:"browser"`
		Expected *int   `json:"expected"`
		Result   struct {
			Violations []struct {
				ID string `json:"id"`
			} `json:"violations"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "sample", reports[0].Scenario)
	assert.Equal(t, "chrome", reports[0].Browser)
	assert.Equal(t, "firefox", reports[1].Browser)
	assert.Nil(t, reports[0].Expected)
	assert.Len(t, reports[1].Result.Violations, 3)

	assert.Contains(t, ts.provisioner.drivers[0].Scripts(), testAxeScript)
}

func TestRunScenarioFile(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	scenarios := `
scenarios:
  - name: sample
    page: ../samplePage.html
    target: ul
    expect: 3
  - name: sample-chrome
    page: ../samplePage.html
    landmark: main
    browsers: [chrome]
    tags: [wcag2a]
`
	require.NoError(t, ts.FS.MkdirAll(filepath.Join(ts.cwd, "scans"), 0o755))
	require.NoError(t, afero.WriteFile(ts.FS, filepath.Join(ts.cwd, "scans", "scenarios.yaml"), []byte(scenarios), 0o644))

	ts.CmdArgs = []string{"a11yscan", "run", "scans/scenarios.yaml"}
	newRootCommand(ts.GlobalState).execute()

	assert.Equal(t, []webdriver.BrowserKind{webdriver.Chrome, webdriver.Firefox, webdriver.Chrome}, ts.provisioner.kinds)
	assert.Contains(t, ts.stdOut.String(), "sample-chrome [Chrome]")
	assert.Contains(t, ts.stdOut.String(), "3/3 scans passed")
}

func TestRunScenarioFileBrowserOverride(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	scenarios := "scenarios:\n  - page: samplePage.html\n    browsers: [chrome]\n"
	require.NoError(t, afero.WriteFile(ts.FS, filepath.Join(ts.cwd, "scenarios.yaml"), []byte(scenarios), 0o644))

	ts.CmdArgs = []string{"a11yscan", "run", "--browser", "firefox", "scenarios.yaml"}
	newRootCommand(ts.GlobalState).execute()

	assert.Equal(t, []webdriver.BrowserKind{webdriver.Firefox}, ts.provisioner.kinds)
}

func TestRunScenarioFileErrors(t *testing.T) {
	t.Parallel()

	for name, tt := range map[string]struct {
		content  string
		exitCode exitcodes.ExitCode
	}{
		"missing":       {exitCode: exitcodes.InvalidConfig},
		"empty":         {content: "scenarios: []\n", exitCode: exitcodes.InvalidConfig},
		"safari":        {content: "scenarios:\n  - page: samplePage.html\n    browsers: [safari]\n", exitCode: exitcodes.InvalidConfig},
		"scan_mismatch": {content: "scenarios:\n  - page: samplePage.html\n    expect: 1\n", exitCode: exitcodes.ViolationsMismatch},
	} {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts := newGlobalTestState(t)
			if tt.content != "" {
				require.NoError(t, afero.WriteFile(ts.FS, filepath.Join(ts.cwd, "scenarios.yaml"), []byte(tt.content), 0o644))
			}
			ts.expectedExitCode = int(tt.exitCode)
			ts.CmdArgs = []string{"a11yscan", "run", "scenarios.yaml"}
			newRootCommand(ts.GlobalState).execute()
		})
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var b safeBuffer
	writeSummary(&b, nil, true)
	assert.Contains(t, b.String(), "0/0 scans passed")

	ts := newGlobalTestState(t)
	printSummary(ts.GlobalState, nil)
	assert.Empty(t, ts.stdOut.String())
}

func TestScanInterrupted(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.ExternalAbort)
	ts.provisioner.block = true
	ts.SignalNotify = func(c chan<- os.Signal, _ ...os.Signal) {
		c <- os.Interrupt
	}
	ts.CmdArgs = []string{"a11yscan", "scan", "-b", "chrome", "samplePage.html"}
	newRootCommand(ts.GlobalState).execute()

	assert.Contains(t, ts.stdErr.String(), "scan interrupted by signal interrupt")
	assert.Equal(t, []webdriver.BrowserKind{webdriver.Chrome}, ts.provisioner.kinds)
}
