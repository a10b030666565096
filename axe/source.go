package axe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// DefaultSource is where the axe-core script is read from when nothing else
// is configured, relative to the working directory.
const DefaultSource = "axe.min.js"

// DefaultURL is the pinned axe-core release used when DefaultSource does not
// exist.
const DefaultURL = "https://cdn.jsdelivr.net/npm/axe-core@4.9.1/axe.min.js"

// maxScriptSize bounds how much of a remote script is read.
const maxScriptSize = 16 << 20

// Source loads the axe-core engine script from a file or an http(s) URL.
// The script is read once and cached.
type Source struct {
	location string
	fallback string
	fs       afero.Fs
	client   *http.Client

	mu     sync.Mutex
	script string
}

// NewSource returns a Source reading location. Locations starting with
// http:// or https:// are downloaded with client, anything else is a path on
// fs. Empty values fall back to DefaultSource, afero.NewOsFs and
// http.DefaultClient. An empty location also downloads DefaultURL when
// DefaultSource does not exist.
func NewSource(location string, fs afero.Fs, client *http.Client) *Source {
	var fallback string
	if location == "" {
		location, fallback = DefaultSource, DefaultURL
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{location: location, fallback: fallback, fs: fs, client: client}
}

// WithFallback makes s download url when its location is a file that does
// not exist.
func (s *Source) WithFallback(url string) *Source {
	s.fallback = url
	return s
}

// ScriptSource wraps an already loaded script.
func ScriptSource(script string) *Source {
	return &Source{location: "inline", script: script}
}

// Location returns where the script is loaded from.
func (s *Source) Location() string { return s.location }

// Script returns the axe-core script, loading it on the first call.
// Failed loads are not cached.
func (s *Source) Script(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.script != "" {
		return s.script, nil
	}
	var (
		b   []byte
		err error
	)
	if isURL(s.location) {
		b, err = s.download(ctx, s.location)
	} else {
		b, err = afero.ReadFile(s.fs, s.location)
		if errors.Is(err, fs.ErrNotExist) && s.fallback != "" {
			var ferr error
			if b, ferr = s.download(ctx, s.fallback); ferr != nil {
				err = errors.Join(err, ferr)
			} else {
				err = nil
				s.location = s.fallback
			}
		}
	}
	if err != nil {
		return "", &Error{Op: "loading engine", Err: err}
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", &Error{Op: "loading engine", Err: fmt.Errorf("%s is empty", s.location)}
	}
	s.script = string(b)

	return s.script, nil
}

func (s *Source) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", location, res.Status)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxScriptSize))
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
