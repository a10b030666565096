package webdriver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/a11yscan/testutils/webdrivertest"
)

func TestSessionRelease(t *testing.T) {
	t.Parallel()

	var order []string
	wd := webdrivertest.New()
	s := NewSession(Chrome, wd,
		WithReleaser(func() error { order = append(order, "first"); return nil }),
		WithReleaser(func() error { order = append(order, "second"); return errors.New("busy") }),
	)

	err := s.Release()
	require.ErrorContains(t, err, "busy")
	assert.True(t, s.Released())
	assert.Equal(t, 1, wd.Quits())
	assert.Equal(t, []string{"second", "first"}, order)

	// later calls are no-ops that report the same outcome
	require.Equal(t, err, s.Release())
	assert.Equal(t, 1, wd.Quits())
	assert.Len(t, order, 2)
}

func TestSessionReleaseConcurrent(t *testing.T) {
	t.Parallel()

	wd := webdrivertest.New()
	s := NewSession(Firefox, wd)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Release())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wd.Quits())
}

func TestSessionQuitError(t *testing.T) {
	t.Parallel()

	wd := webdrivertest.New()
	wd.QuitErr = errors.New("connection refused")
	stopped := false
	s := NewSession(Chrome, wd, WithReleaser(func() error { stopped = true; return nil }))

	require.ErrorContains(t, s.Release(), "quitting Chrome")
	assert.True(t, stopped)
}

func TestSessionAfterRelease(t *testing.T) {
	t.Parallel()

	wd := webdrivertest.New().Show("main", 0)
	s := NewSession(Chrome, wd)
	require.NoError(t, s.Release())

	require.ErrorIs(t, s.Navigate(context.Background(), "file:///x.html"), ErrReleased)
	_, err := s.WaitForReady(context.Background(), "main")
	require.ErrorIs(t, err, ErrReleased)
	assert.Empty(t, wd.URL())
}

func TestSessionNavigateAndWait(t *testing.T) {
	t.Parallel()

	wd := webdrivertest.New().Show("main", 1)
	s := NewSession(Firefox, wd, WithWaitPolicy(WaitPolicy{Timeout: DefaultReadyTimeout, Interval: 1}))
	t.Cleanup(func() { _ = s.Release() })

	require.NoError(t, s.Navigate(context.Background(), "file:///tmp/samplePage.html"))
	assert.Equal(t, "file:///tmp/samplePage.html", wd.URL())

	_, err := s.WaitForReady(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, 2, wd.Lookups("main"))

	wd.GetErr = errors.New("unknown error: net::ERR_FILE_NOT_FOUND")
	require.ErrorContains(t, s.Navigate(context.Background(), "file:///nope.html"), "ERR_FILE_NOT_FOUND")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Navigate(ctx, "file:///tmp/samplePage.html"), context.Canceled)
}
