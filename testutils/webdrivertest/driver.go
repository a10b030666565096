// Package webdrivertest provides an in-memory selenium.WebDriver for tests.
package webdrivertest

import (
	"fmt"
	"sync"
	"time"

	"github.com/tebeka/selenium"
)

// NoSuchElement is the error a real driver answers with for a missing element.
func NoSuchElement(selector string) error {
	return &selenium.Error{
		Err:        "no such element",
		Message:    fmt.Sprintf("Unable to locate element: %s", selector),
		HTTPCode:   404,
		LegacyCode: 7,
	}
}

// Driver is a selenium.WebDriver double. Only the methods used by a11yscan are
// implemented, calling any other one panics.
//
// Elements become visible through Show, optionally after a number of lookups.
type Driver struct {
	selenium.WebDriver

	// Errors returned by the corresponding methods, when set.
	GetErr           error
	FindErr          error
	ScriptTimeoutErr error
	MaximizeErr      error
	QuitErr          error

	// AsyncScript answers ExecuteScriptAsyncRaw and ExecuteScriptAsync.
	AsyncScript func(script string, args []any) ([]byte, error)
	// Script answers ExecuteScript.
	Script func(script string, args []any) (any, error)

	mu            sync.Mutex
	url           string
	elements      map[string]*element
	lookups       map[string]int
	scriptTimeout time.Duration
	maximized     bool
	quits         int
	scripts       []string
}

type element struct {
	selenium.WebElement
	selector string
	after    int
}

// Element is the selenium.WebElement returned by FindElement.
type Element interface {
	selenium.WebElement
	Selector() string
}

func (e *element) Selector() string { return e.selector }

// New returns an empty Driver.
func New() *Driver {
	return &Driver{
		elements: make(map[string]*element),
		lookups:  make(map[string]int),
	}
}

// Show makes selector findable once it has been looked up after times.
func (d *Driver) Show(selector string, after int) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[selector] = &element{selector: selector, after: after}
	return d
}

// Get implements selenium.WebDriver.
func (d *Driver) Get(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetErr != nil {
		return d.GetErr
	}
	d.url = url
	return nil
}

// CurrentURL implements selenium.WebDriver.
func (d *Driver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

// FindElement implements selenium.WebDriver. Only CSS selectors are supported.
func (d *Driver) FindElement(by, value string) (selenium.WebElement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if by != selenium.ByCSSSelector {
		return nil, fmt.Errorf("unsupported locator %q", by)
	}
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	d.lookups[value]++
	el, ok := d.elements[value]
	if !ok || d.lookups[value] <= el.after {
		return nil, NoSuchElement(value)
	}
	return el, nil
}

// SetAsyncScriptTimeout implements selenium.WebDriver.
func (d *Driver) SetAsyncScriptTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ScriptTimeoutErr != nil {
		return d.ScriptTimeoutErr
	}
	d.scriptTimeout = timeout
	return nil
}

// MaximizeWindow implements selenium.WebDriver.
func (d *Driver) MaximizeWindow(string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.MaximizeErr != nil {
		return d.MaximizeErr
	}
	d.maximized = true
	return nil
}

// ExecuteScript implements selenium.WebDriver.
func (d *Driver) ExecuteScript(script string, args []any) (any, error) {
	d.record(script)
	if d.Script == nil {
		return nil, nil
	}
	return d.Script(script, args)
}

// ExecuteScriptAsyncRaw implements selenium.WebDriver.
func (d *Driver) ExecuteScriptAsyncRaw(script string, args []any) ([]byte, error) {
	d.record(script)
	if d.AsyncScript == nil {
		return []byte(`{"value":null}`), nil
	}
	return d.AsyncScript(script, args)
}

// Quit implements selenium.WebDriver.
func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return d.QuitErr
}

func (d *Driver) record(script string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts = append(d.scripts, script)
}

// URL returns the last navigated URL.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// Lookups returns how many times selector was looked up.
func (d *Driver) Lookups(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups[selector]
}

// ScriptTimeout returns the async script timeout that was set.
func (d *Driver) ScriptTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scriptTimeout
}

// Maximized reports whether MaximizeWindow succeeded.
func (d *Driver) Maximized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maximized
}

// Quits returns how many times Quit was called.
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

// Scripts returns the executed scripts in order.
func (d *Driver) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}
