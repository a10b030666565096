package webdriver

import (
	"fmt"
	"runtime"
	"strings"
)

// BrowserKind identifies a browser that can be provisioned.
type BrowserKind int

// Supported browsers.
const (
	Chrome BrowserKind = iota + 1
	Firefox
)

// Kinds lists the supported browsers in the order scans run them.
func Kinds() []BrowserKind {
	return []BrowserKind{Chrome, Firefox}
}

// ParseBrowserKind returns the BrowserKind named by s, ignoring case.
func ParseBrowserKind(s string) (BrowserKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CHROME":
		return Chrome, nil
	case "FIREFOX":
		return Firefox, nil
	default:
		return 0, fmt.Errorf("remote browser type %q is not supported: %w", s, ErrUnsupportedBrowser)
	}
}

// Valid reports whether k is one of the supported browsers.
func (k BrowserKind) Valid() bool {
	return k == Chrome || k == Firefox
}

func (k BrowserKind) String() string {
	switch k {
	case Chrome:
		return "Chrome"
	case Firefox:
		return "Firefox"
	default:
		return fmt.Sprintf("BrowserKind(%d)", int(k))
	}
}

// browserName is the WebDriver browserName capability.
func (k BrowserKind) browserName() string {
	return strings.ToLower(k.String())
}

// DriverExecutable is the file name of the WebDriver server for k.
func (k BrowserKind) DriverExecutable() string {
	var name string
	switch k {
	case Chrome:
		name = "chromedriver"
	case Firefox:
		name = "geckodriver"
	default:
		return ""
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

// UnmarshalText lets a BrowserKind be read from flags and scenario files.
func (k *BrowserKind) UnmarshalText(text []byte) error {
	kind, err := ParseBrowserKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (k BrowserKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%s: %w", k, ErrUnsupportedBrowser)
	}
	return []byte(k.browserName()), nil
}
