package scenario

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
)

// ErrMissingElement is returned when a local page lacks a selector.
var ErrMissingElement = errors.New("element not found")

// CheckFixture parses the local page at path and checks that every
// non-empty selector matches an element. It catches broken fixtures before
// a browser is started.
func CheckFixture(fs afero.Fs, path string, selectors ...string) error {
	f, err := fs.Open(path)
	if err != nil {
		return errext.WithExitCodeIfNone(fmt.Errorf("opening page: %w", err), exitcodes.InvalidConfig)
	}
	defer f.Close() //nolint:errcheck

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return errext.WithExitCodeIfNone(fmt.Errorf("parsing %s: %w", path, err), exitcodes.InvalidConfig)
	}
	var errs []error
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if doc.Find(sel).Length() == 0 {
			errs = append(errs, fmt.Errorf("%s: %q: %w", path, sel, ErrMissingElement))
		}
	}
	return errext.WithExitCodeIfNone(errors.Join(errs...), exitcodes.InvalidConfig)
}
