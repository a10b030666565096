package webdriver

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseBrowserKind(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want BrowserKind
		err  bool
	}{
		{in: "Chrome", want: Chrome},
		{in: "chrome", want: Chrome},
		{in: " CHROME ", want: Chrome},
		{in: "Firefox", want: Firefox},
		{in: "firefox", want: Firefox},
		{in: "Safari", err: true},
		{in: "Edge", err: true},
		{in: "", err: true},
	} {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseBrowserKind(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrUnsupportedBrowser)
				assert.Contains(t, err.Error(), tt.in)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBrowserKindDriverExecutable(t *testing.T) {
	t.Parallel()

	suffix := ""
	if runtime.GOOS == "windows" {
		suffix = ".exe"
	}
	assert.Equal(t, "chromedriver"+suffix, Chrome.DriverExecutable())
	assert.Equal(t, "geckodriver"+suffix, Firefox.DriverExecutable())
	assert.Empty(t, BrowserKind(0).DriverExecutable())
}

func TestBrowserKindText(t *testing.T) {
	t.Parallel()

	var doc struct {
		Browsers []BrowserKind `yaml:"browsers"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("browsers: [chrome, Firefox]"), &doc))
	assert.Equal(t, []BrowserKind{Chrome, Firefox}, doc.Browsers)

	err := yaml.Unmarshal([]byte("browsers: [safari]"), &doc)
	require.ErrorIs(t, err, ErrUnsupportedBrowser)

	b, err := Firefox.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "firefox", string(b))

	_, err = BrowserKind(9).MarshalText()
	require.ErrorIs(t, err, ErrUnsupportedBrowser)
	assert.Equal(t, "BrowserKind(9)", BrowserKind(9).String())
}
