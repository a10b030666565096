package webdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tebeka/selenium"

	"github.com/grafana/a11yscan/log"
)

// Session is a live browser session. It owns the WebDriver client and
// whatever was started to serve it. Release must be called once the session
// is no longer needed; it is safe to call it more than once.
type Session struct {
	kind   BrowserKind
	wd     selenium.WebDriver
	wait   WaitPolicy
	logger *log.Logger

	// releasers run in reverse order on Release.
	releasers  []func() error
	once       sync.Once
	released   atomic.Bool
	releaseErr error
}

// SessionOption configures a Session created by NewSession.
type SessionOption func(*Session)

// WithWaitPolicy sets the policy used by WaitForReady.
func WithWaitPolicy(p WaitPolicy) SessionOption {
	return func(s *Session) { s.wait = p }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithReleaser adds fn to what Release tears down. Releasers run in the
// reverse order they were added, after the WebDriver session is quit.
func WithReleaser(fn func() error) SessionOption {
	return func(s *Session) { s.releasers = append(s.releasers, fn) }
}

// NewSession wraps an already started WebDriver session. Release quits wd.
// The session policies are not applied, see Provisioner.Provision for that.
func NewSession(kind BrowserKind, wd selenium.WebDriver, opts ...SessionOption) *Session {
	s := &Session{
		kind: kind,
		wd:   wd,
		wait: DefaultWaitPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewNullLogger()
	}
	return s
}

// Kind returns the browser of the session.
func (s *Session) Kind() BrowserKind { return s.kind }

// WebDriver returns the underlying client.
func (s *Session) WebDriver() selenium.WebDriver { return s.wd }

// Released reports whether Release was called.
func (s *Session) Released() bool { return s.released.Load() }

// Navigate loads url in the browser window.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.Released() {
		return ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debugf("Session:Navigate", "browser:%s url:%q", s.kind, url)
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("navigating to %q: %w", url, err)
	}
	return nil
}

// WaitForReady waits for selector to be present using the session wait policy.
func (s *Session) WaitForReady(ctx context.Context, selector string) (selenium.WebElement, error) {
	if s.Released() {
		return nil, ErrReleased
	}
	s.logger.Debugf("Session:WaitForReady", "browser:%s selector:%q timeout:%s", s.kind, selector, s.wait.Timeout)
	start := time.Now()
	el, err := WaitForElement(ctx, s.wd, selector, s.wait)
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("Session:WaitForReady", "browser:%s selector:%q found after %s", s.kind, selector, time.Since(start))
	return el, nil
}

// Release quits the browser and frees everything the session holds. Only the
// first call does anything, later calls return the same result.
func (s *Session) Release() error {
	s.once.Do(func() {
		s.released.Store(true)
		s.logger.Debugf("Session:Release", "browser:%s", s.kind)

		var errs []error
		if s.wd != nil {
			if err := s.wd.Quit(); err != nil {
				errs = append(errs, fmt.Errorf("quitting %s: %w", s.kind, err))
			}
		}
		for i := len(s.releasers) - 1; i >= 0; i-- {
			if err := s.releasers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		s.releaseErr = errors.Join(errs...)
		if s.releaseErr != nil {
			s.logger.Warnf("Session:Release", "browser:%s err:%v", s.kind, s.releaseErr)
		}
	})
	return s.releaseErr
}
