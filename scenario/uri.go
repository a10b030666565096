package scenario

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var windowsDrive = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// FileURI returns the absolute file:// URI of the local path. Relative
// paths are resolved against the working directory. Windows paths with a
// drive letter are accepted on every platform.
func FileURI(path string) (string, error) {
	var p string
	if windowsDrive.MatchString(path) {
		p = "/" + strings.ReplaceAll(path, `\`, "/")
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		p = filepath.ToSlash(abs)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}

// IsRemote reports whether page is a URL rather than a local path.
func IsRemote(page string) bool {
	if windowsDrive.MatchString(page) {
		return false
	}
	u, err := url.Parse(page)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "file":
		return true
	default:
		return false
	}
}
