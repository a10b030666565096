package axe

import (
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Impact levels reported by axe-core, from least to most severe.
const (
	ImpactMinor    = "minor"
	ImpactModerate = "moderate"
	ImpactSerious  = "serious"
	ImpactCritical = "critical"
)

// Result is the outcome of an audit.
type Result struct {
	Engine       Engine    `json:"testEngine"`
	URL          string    `json:"url"`
	Timestamp    time.Time `json:"timestamp"`
	Violations   []Rule    `json:"violations"`
	Passes       []Rule    `json:"passes"`
	Incomplete   []Rule    `json:"incomplete"`
	Inapplicable []Rule    `json:"inapplicable"`

	raw []byte
}

// Engine identifies the axe-core build that ran the audit.
type Engine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Rule is a rule outcome with the nodes it applies to.
type Rule struct {
	ID          string   `json:"id"`
	Impact      string   `json:"impact,omitempty"`
	Description string   `json:"description"`
	Help        string   `json:"help"`
	HelpURL     string   `json:"helpUrl"`
	Tags        []string `json:"tags"`
	Nodes       []Node   `json:"nodes"`
}

// Node is an element checked by a rule.
type Node struct {
	HTML           string   `json:"html"`
	Target         []string `json:"target"`
	Impact         string   `json:"impact,omitempty"`
	FailureSummary string   `json:"failureSummary,omitempty"`
}

// ParseResult reads the JSON result of axe.run.
func ParseResult(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON result")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New("result is not an object")
	}
	if !doc.Get("violations").IsArray() {
		return nil, errors.New("result has no violations list")
	}

	r := &Result{
		Engine: Engine{
			Name:    doc.Get("testEngine.name").String(),
			Version: doc.Get("testEngine.version").String(),
		},
		URL:          doc.Get("url").String(),
		Violations:   parseRules(doc.Get("violations")),
		Passes:       parseRules(doc.Get("passes")),
		Incomplete:   parseRules(doc.Get("incomplete")),
		Inapplicable: parseRules(doc.Get("inapplicable")),
		raw:          data,
	}
	if ts := doc.Get("timestamp"); ts.Exists() {
		r.Timestamp = ts.Time()
	}
	return r, nil
}

func parseRules(v gjson.Result) []Rule {
	arr := v.Array()
	rules := make([]Rule, 0, len(arr))
	for _, r := range arr {
		rules = append(rules, Rule{
			ID:          r.Get("id").String(),
			Impact:      r.Get("impact").String(),
			Description: r.Get("description").String(),
			Help:        r.Get("help").String(),
			HelpURL:     r.Get("helpUrl").String(),
			Tags:        stringList(r.Get("tags")),
			Nodes:       parseNodes(r.Get("nodes")),
		})
	}
	return rules
}

func parseNodes(v gjson.Result) []Node {
	arr := v.Array()
	nodes := make([]Node, 0, len(arr))
	for _, n := range arr {
		nodes = append(nodes, Node{
			HTML:           n.Get("html").String(),
			Target:         targets(n.Get("target")),
			Impact:         n.Get("impact").String(),
			FailureSummary: n.Get("failureSummary").String(),
		})
	}
	return nodes
}

// targets flattens node selectors. Selectors into shadow roots come as
// nested lists and are joined with " >>> ".
func targets(v gjson.Result) []string {
	var out []string
	for _, t := range v.Array() {
		if t.IsArray() {
			out = append(out, strings.Join(stringList(t), " >>> "))
			continue
		}
		out = append(out, t.String())
	}
	return out
}

func stringList(v gjson.Result) []string {
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, s := range arr {
		out = append(out, s.String())
	}
	return out
}

// Raw returns the JSON the result was parsed from.
func (r *Result) Raw() []byte { return r.raw }

// ViolationCount returns the number of violated rules.
func (r *Result) ViolationCount() int { return len(r.Violations) }

// ViolatedRules returns the IDs of the violated rules.
func (r *Result) ViolatedRules() []string {
	ids := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		ids = append(ids, v.ID)
	}
	return ids
}

// CountByImpact counts violations by impact.
func (r *Result) CountByImpact() map[string]int {
	m := make(map[string]int)
	for _, v := range r.Violations {
		m[v.Impact]++
	}
	return m
}
