//go:build integration

// The integration tests drive real browsers. A browser is skipped when its
// driver (chromedriver, geckodriver) or the browser itself is not installed;
// ChromeWebDriver and GeckoWebDriver name the driver directories. The
// axe-core engine is A11YSCAN_AXE_SOURCE, axe.min.js in the package
// directory or else the pinned release at axe.DefaultURL, which needs
// network access.
package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/a11yscan/axe"
	"github.com/grafana/a11yscan/env"
	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/testutils"
	"github.com/grafana/a11yscan/testutils/browsertest"
	"github.com/grafana/a11yscan/webdriver"
)

func axeSource(t *testing.T) *axe.Source {
	t.Helper()

	conf, err := env.Load(env.Lookup())
	require.NoError(t, err)
	return axe.NewSource(conf.AxeSource.ValueOrZero(), afero.NewOsFs(), nil)
}

func TestSamplePage(t *testing.T) {
	source := axeSource(t)

	for _, kind := range webdriver.Kinds() {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			logger := log.New(testutils.NewLogger(t), false, nil)
			p := webdriver.NewProvisioner(browsertest.Options(t), logger)
			r := NewRunner(p, axe.NewAnalyzer(source, logger), logger)

			rep, err := r.Run(context.Background(), kind, Sample(samplePage))
			browsertest.SkipIfUnavailable(t, kind, err)
			require.NoError(t, err)
			assert.Equal(t, 3, rep.Violations(), rep.Result.ViolatedRules())
			require.NoError(t, rep.Check())
		})
	}
}

func TestSamplePageServed(t *testing.T) {
	source := axeSource(t)

	for _, kind := range webdriver.Kinds() {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			bt := browsertest.New(t, kind).WithStaticFiles(t, "testdata")
			r := NewRunner(bt, axe.NewAnalyzer(source, bt.Logger), bt.Logger)

			rep, err := r.Run(bt.Ctx, kind, Sample(bt.URL("/samplePage.html")))
			require.NoError(t, err)
			assert.Equal(t, bt.URL("/samplePage.html"), rep.URL)
			assert.Equal(t, 3, rep.Violations(), rep.Result.ViolatedRules())

			// the runner released the session, the cleanup release is a no-op
			assert.True(t, bt.Session.Released())
			assert.True(t, bt.LogHook.Contains("Provisioner:"+kind.String(), "session started"))
		})
	}
}

func TestProvisionPolicies(t *testing.T) {
	for _, kind := range webdriver.Kinds() {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			bt := browsertest.New(t, kind).WithStaticFiles(t, "testdata")
			wd := bt.Session.WebDriver()

			require.NoError(t, bt.Session.Navigate(bt.Ctx, bt.URL("/samplePage.html")))
			start := time.Now()
			_, err := bt.Session.WaitForReady(bt.Ctx, "main")
			require.NoError(t, err)
			assert.Less(t, time.Since(start), webdriver.DefaultReadyTimeout)

			t.Run("maximized", func(t *testing.T) {
				v, err := wd.ExecuteScript(
					"return [window.outerWidth, window.outerHeight, screen.availWidth, screen.availHeight];", nil)
				require.NoError(t, err)
				size, ok := v.([]any)
				require.True(t, ok, "%T", v)
				require.Len(t, size, 4)
				const slack = 16 // window borders
				assert.GreaterOrEqual(t, size[0].(float64), size[2].(float64)-slack, "width %v", size)
				assert.GreaterOrEqual(t, size[1].(float64), size[3].(float64)-slack, "height %v", size)
			})

			t.Run("script_timeout", func(t *testing.T) {
				const wait = `var ms = arguments[0], done = arguments[arguments.length - 1];
window.setTimeout(function () { done(ms); }, ms);`
				_, err := wd.ExecuteScriptAsync(wait, []any{2000})
				require.NoError(t, err)

				// longer than the 20s policy, shorter than the 30s WebDriver default
				start := time.Now()
				_, err = wd.ExecuteScriptAsync(wait, []any{25000})
				require.Error(t, err)
				assert.Contains(t, err.Error(), "timeout")
				assert.Less(t, time.Since(start), 24*time.Second)
			})

			t.Run("prompts_accepted", func(t *testing.T) {
				_, err := wd.ExecuteScript(
					"window.setTimeout(function () { window.confirmed = window.confirm('continue?'); }, 0); return null;", nil)
				require.NoError(t, err)

				// the next commands accept the dialog instead of failing on it
				assert.Eventually(t, func() bool {
					v, err := wd.ExecuteScript("return window.confirmed === true;", nil)
					return err == nil && v == true
				}, 5*time.Second, 100*time.Millisecond)
			})

			// release twice, the second one is a no-op
			require.NoError(t, bt.Session.Release())
			require.NoError(t, bt.Session.Release())
		})
	}
}

func TestProvisionUnsupportedBrowser(t *testing.T) {
	_, err := webdriver.ParseBrowserKind("Safari")
	require.ErrorIs(t, err, webdriver.ErrUnsupportedBrowser)
}
