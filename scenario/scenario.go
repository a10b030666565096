// Package scenario runs accessibility scans: a page is loaded in a browser,
// an element is located and audited, and the number of violations is
// compared with the expected one.
package scenario

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/webdriver"
)

// DefaultLandmark is the element a page must show before it is audited.
const DefaultLandmark = "main"

// Scenario describes a scan.
type Scenario struct {
	Name string `yaml:"name" json:"name"`
	// Page is a local path or an http(s) or file URL.
	Page string `yaml:"page" json:"page"`
	// Landmark is the CSS selector the page is ready with.
	Landmark string `yaml:"landmark" json:"landmark"`
	// Target is the CSS selector of the audited element. Empty audits the
	// whole page.
	Target string `yaml:"target" json:"target,omitempty"`
	// Expected is the expected number of violations. Unset means any.
	Expected null.Int                `yaml:"expect" json:"expect"`
	Browsers []webdriver.BrowserKind `yaml:"browsers" json:"browsers"`

	Tags          []string `yaml:"tags" json:"tags,omitempty"`
	Rules         []string `yaml:"rules" json:"rules,omitempty"`
	DisabledRules []string `yaml:"disableRules" json:"disableRules,omitempty"`
}

// Sample is the scan of the bundled sample page: the list of its main
// landmark has exactly three violations.
func Sample(page string) Scenario {
	return Scenario{
		Name:     "sample",
		Page:     page,
		Landmark: DefaultLandmark,
		Target:   "ul",
		Expected: null.IntFrom(3),
		Browsers: webdriver.Kinds(),
	}
}

// WithDefaults fills the unset fields of s.
func (s Scenario) WithDefaults() Scenario {
	if s.Landmark == "" {
		s.Landmark = DefaultLandmark
	}
	if len(s.Browsers) == 0 {
		s.Browsers = webdriver.Kinds()
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(s.Page), filepath.Ext(s.Page))
	}
	return s
}

// Validate checks s can be run.
func (s Scenario) Validate() error {
	var errs []error
	if s.Page == "" {
		errs = append(errs, errors.New("page is required"))
	}
	if s.Expected.Valid && s.Expected.Int64 < 0 {
		errs = append(errs, fmt.Errorf("expect must not be negative, got %d", s.Expected.Int64))
	}
	for _, k := range s.Browsers {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("%s: %w", k, webdriver.ErrUnsupportedBrowser))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return errext.WithExitCodeIfNone(fmt.Errorf("scenario %q: %w", s.Name, err), exitcodes.InvalidConfig)
	}
	return nil
}

// URL returns the address the browser loads.
func (s Scenario) URL() (string, error) {
	if IsRemote(s.Page) {
		u, err := url.Parse(s.Page)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	return FileURI(s.Page)
}

// File is the content of a scenario file.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadFile reads the scenarios of the YAML file at path. Relative pages are
// resolved against the directory of the file.
func LoadFile(fs afero.Fs, path string) ([]Scenario, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(fmt.Errorf("reading scenarios: %w", err), exitcodes.InvalidConfig)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errext.WithExitCodeIfNone(fmt.Errorf("parsing %s: %w", path, err), exitcodes.InvalidConfig)
	}
	if len(f.Scenarios) == 0 {
		return nil, errext.WithExitCodeIfNone(fmt.Errorf("%s has no scenarios", path), exitcodes.InvalidConfig)
	}

	dir := filepath.Dir(path)
	scenarios := make([]Scenario, 0, len(f.Scenarios))
	for _, s := range f.Scenarios {
		if s.Page != "" && !IsRemote(s.Page) && !filepath.IsAbs(s.Page) && !windowsDrive.MatchString(s.Page) {
			s.Page = filepath.Join(dir, s.Page)
		}
		s = s.WithDefaults()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
