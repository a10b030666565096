package webdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"
)

// WaitPolicy bounds how long and how often an element is looked for.
type WaitPolicy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultWaitPolicy polls every DefaultPollInterval for up to DefaultReadyTimeout.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Timeout:  DefaultReadyTimeout,
		Interval: DefaultPollInterval,
	}
}

func (p WaitPolicy) withDefaults() WaitPolicy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultReadyTimeout
	}
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Interval > p.Timeout {
		p.Interval = p.Timeout
	}
	return p
}

// WaitForElement looks selector up every policy.Interval until it is found,
// policy.Timeout elapses or ctx is done. Lookups answered with "no such
// element" are retried, any other error is returned right away.
//
// On timeout the returned error is a *TimeoutError.
func WaitForElement(
	ctx context.Context, wd selenium.WebDriver, selector string, policy WaitPolicy,
) (selenium.WebElement, error) {
	policy = policy.withDefaults()

	waitCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()

	var lastErr error
	for {
		el, err := wd.FindElement(selenium.ByCSSSelector, selector)
		if err == nil {
			return el, nil
		}
		if !isNoSuchElement(err) {
			return nil, fmt.Errorf("looking up %q: %w", selector, err)
		}
		lastErr = err

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("waiting for %q: %w", selector, err)
			}
			return nil, &TimeoutError{Selector: selector, Timeout: policy.Timeout, Err: lastErr}
		case <-ticker.C:
		}
	}
}

func isNoSuchElement(err error) bool {
	var serr *selenium.Error
	if errors.As(err, &serr) {
		return serr.Err == "no such element" || serr.LegacyCode == 7
	}
	return strings.Contains(err.Error(), "no such element")
}
