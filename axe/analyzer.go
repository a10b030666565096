// Package axe runs axe-core accessibility audits in a WebDriver session.
package axe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tidwall/gjson"

	"github.com/grafana/a11yscan/log"
)

const (
	isLoadedScript = `return typeof window.axe === "object" && typeof window.axe.run === "function";`

	// runScript calls back with the JSON encoded result, or with an object
	// holding an error message.
	runScript = `var callback = arguments[arguments.length - 1];
var context = arguments[0] || document;
var options = JSON.parse(arguments[1]);
window.axe.run(context, options).then(function (result) {
	callback(JSON.stringify(result));
}).catch(function (err) {
	callback(JSON.stringify({ error: String((err && err.message) || err) }));
});`
)

// Analyzer audits pages with the axe-core engine of its source.
type Analyzer struct {
	source *Source
	logger *log.Logger
}

// NewAnalyzer returns an Analyzer injecting the script of source.
func NewAnalyzer(source *Source, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Analyzer{source: source, logger: logger}
}

// Builder configures a single audit of the page loaded in wd.
type Builder struct {
	a        *Analyzer
	wd       selenium.WebDriver
	tags     []string
	rules    []string
	disabled []string
}

// Builder starts the configuration of an audit in wd.
func (a *Analyzer) Builder(wd selenium.WebDriver) *Builder {
	return &Builder{a: a, wd: wd}
}

// WithTags only runs the rules tagged with one of tags, e.g. "wcag2a".
func (b *Builder) WithTags(tags ...string) *Builder {
	b.tags = append(b.tags, tags...)
	return b
}

// WithRules only runs the given rules. It takes precedence over WithTags.
func (b *Builder) WithRules(ids ...string) *Builder {
	b.rules = append(b.rules, ids...)
	return b
}

// DisableRules skips the given rules.
func (b *Builder) DisableRules(ids ...string) *Builder {
	b.disabled = append(b.disabled, ids...)
	return b
}

// Options returns the axe.run options of the audit.
func (b *Builder) Options() map[string]any {
	opts := make(map[string]any)
	switch {
	case len(b.rules) > 0:
		opts["runOnly"] = map[string]any{"type": "rule", "values": b.rules}
	case len(b.tags) > 0:
		opts["runOnly"] = map[string]any{"type": "tag", "values": b.tags}
	}
	if len(b.disabled) > 0 {
		rules := make(map[string]any, len(b.disabled))
		for _, id := range b.disabled {
			rules[id] = map[string]bool{"enabled": false}
		}
		opts["rules"] = rules
	}
	return opts
}

// Analyze audits the whole page.
func (b *Builder) Analyze(ctx context.Context) (*Result, error) {
	return b.run(ctx, nil)
}

// AnalyzeElement audits el and its descendants.
func (b *Builder) AnalyzeElement(ctx context.Context, el selenium.WebElement) (*Result, error) {
	if el == nil {
		return nil, &Error{Op: "analyzing element", Err: errors.New("no element")}
	}
	return b.run(ctx, el)
}

func (b *Builder) run(ctx context.Context, el selenium.WebElement) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "running", Err: err}
	}
	if err := b.a.inject(ctx, b.wd); err != nil {
		return nil, err
	}

	opts, err := json.Marshal(b.Options())
	if err != nil {
		return nil, &Error{Op: "encoding options", Err: err}
	}
	var target any
	if el != nil {
		target = el
	}

	start := time.Now()
	raw, err := b.wd.ExecuteScriptAsyncRaw(runScript, []any{target, string(opts)})
	if err != nil {
		return nil, &Error{Op: "running", Err: err}
	}
	value := gjson.GetBytes(raw, "value")
	if value.Type != gjson.String {
		return nil, &Error{Op: "running", Err: fmt.Errorf("unexpected script result %s", truncate(value.Raw))}
	}
	data := []byte(value.String())
	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		return nil, &Error{Op: "running", Err: errors.New(msg.String())}
	}

	res, err := ParseResult(data)
	if err != nil {
		return nil, &Error{Op: "reading result", Err: err}
	}
	b.a.logger.Debugf("Analyzer:run", "engine:%s violations:%d passes:%d elapsed:%s",
		res.Engine.Version, len(res.Violations), len(res.Passes), time.Since(start))

	return res, nil
}

// inject loads the engine into the current page unless it is there already.
func (a *Analyzer) inject(ctx context.Context, wd selenium.WebDriver) error {
	loaded, err := wd.ExecuteScript(isLoadedScript, nil)
	if err != nil {
		return &Error{Op: "checking engine", Err: err}
	}
	if ok, _ := loaded.(bool); ok {
		return nil
	}
	script, err := a.source.Script(ctx)
	if err != nil {
		return err
	}
	a.logger.Debugf("Analyzer:inject", "source:%s", a.source.Location())
	if _, err := wd.ExecuteScript(script, nil); err != nil {
		return &Error{Op: "injecting engine", Err: err}
	}
	return nil
}

func truncate(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
