// Package browsertest starts real browser sessions for integration tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/grafana/a11yscan/env"
	"github.com/grafana/a11yscan/log"
	"github.com/grafana/a11yscan/testutils"
	"github.com/grafana/a11yscan/webdriver"
)

// BrowserTest is a provisioned browser session tied to a test.
type BrowserTest struct {
	Ctx     context.Context
	Session *webdriver.Session
	Logger  *log.Logger
	LogHook *testutils.SimpleLogrusHook
	Server  *httptest.Server
}

// Options returns the provisioner options for tests: the driver
// directories come from the environment, the browser runs headless unless
// A11YSCAN_TEST_HEADLESS=false.
func Options(tb testing.TB) *webdriver.Options {
	tb.Helper()

	conf, err := env.Load(env.Lookup())
	require.NoError(tb, err)
	opts := webdriver.OptionsFromEnv(conf)
	opts.Headless = true
	if v, found := os.LookupEnv("A11YSCAN_TEST_HEADLESS"); found {
		opts.Headless, _ = strconv.ParseBool(v)
	}
	return opts
}

// browserMissing are driver messages for a browser binary that is not
// installed.
var browserMissing = []string{
	"cannot find chrome binary",
	"no chrome binary",
	"unable to find binary",
	"expected browser binary location",
}

// Unavailable reports whether err means that the driver executable or the
// browser of kind is not installed.
func Unavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	msg := strings.ToLower(err.Error())
	var serr *selenium.Error
	if errors.As(err, &serr) {
		msg = strings.ToLower(serr.Err + ": " + serr.Message)
	}
	for _, m := range browserMissing {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// SkipIfUnavailable skips tb when err is Unavailable.
func SkipIfUnavailable(tb testing.TB, kind webdriver.BrowserKind, err error) {
	tb.Helper()
	if Unavailable(err) {
		tb.Skipf("%s or %s is not installed: %v", kind, kind.DriverExecutable(), err)
	}
}

// New provisions a session of kind. The session is released when tb
// finishes. The test is skipped when the driver executable or the browser is
// not installed.
func New(tb testing.TB, kind webdriver.BrowserKind) *BrowserTest {
	tb.Helper()

	hook := &testutils.SimpleLogrusHook{HookedLevels: logrus.AllLevels}
	lg := logrus.New()
	lg.SetOutput(testutils.NewTestOutput(tb))
	lg.AddHook(hook)
	if v, found := os.LookupEnv("A11YSCAN_TEST_DEBUG"); found {
		if debug, _ := strconv.ParseBool(v); debug {
			lg.SetLevel(logrus.DebugLevel)
		}
	}
	logger := log.New(lg, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)

	p := webdriver.NewProvisioner(Options(tb), logger)
	s, err := p.Provision(ctx, kind)
	SkipIfUnavailable(tb, kind, err)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		require.NoError(tb, s.Release())
	})

	return &BrowserTest{
		Ctx:     ctx,
		Session: s,
		Logger:  logger,
		LogHook: hook,
	}
}

// Provision hands out the session of bt, so that a scenario.Runner can use
// it. Releasing it there releases bt.Session.
func (bt *BrowserTest) Provision(ctx context.Context, kind webdriver.BrowserKind) (*webdriver.Session, error) {
	if kind != bt.Session.Kind() {
		return nil, fmt.Errorf("session is %s, not %s: %w", bt.Session.Kind(), kind, webdriver.ErrUnsupportedBrowser)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bt.Session, nil
}

// WithStaticFiles serves dir over HTTP for the lifetime of the test.
func (bt *BrowserTest) WithStaticFiles(tb testing.TB, dir string) *BrowserTest {
	tb.Helper()

	bt.Server = httptest.NewServer(http.FileServer(http.Dir(dir)))
	tb.Cleanup(bt.Server.Close)
	return bt
}

// URL returns the test server URL of path.
func (bt *BrowserTest) URL(path string) string {
	return bt.Server.URL + path
}
