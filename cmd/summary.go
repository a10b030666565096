package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/grafana/a11yscan/axe"
	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/scenario"
)

// printSummary writes one line per report, followed by the violated rules.
func printSummary(gs *state.GlobalState, reports []*scenario.Report) {
	if len(reports) == 0 {
		return
	}
	noColor := gs.Flags.NoColor || !gs.Stdout.IsTTY
	writeSummary(gs.Stdout, reports, noColor)
}

func writeSummary(w io.Writer, reports []*scenario.Report, noColor bool) {
	paint := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c
	}
	green, red, faint := paint(color.FgGreen), paint(color.FgRed), paint(color.Faint)
	impacts := map[string]*color.Color{
		axe.ImpactCritical: paint(color.FgRed, color.Bold),
		axe.ImpactSerious:  paint(color.FgRed),
		axe.ImpactModerate: paint(color.FgYellow),
		axe.ImpactMinor:    paint(color.FgCyan),
	}

	var sb strings.Builder
	sb.WriteString("\n")
	passed := 0
	for _, rep := range reports {
		mark, c := "✓", green
		if rep.Check() != nil {
			mark, c = "✗", red
		} else {
			passed++
		}
		expected := "any"
		if rep.Expected.Valid {
			expected = fmt.Sprint(rep.Expected.Int64)
		}
		fmt.Fprintf(&sb, "  %s %s %s %s\n",
			c.Sprint(mark), rep.Scenario, faint.Sprintf("[%s]", rep.Browser),
			faint.Sprintf("%d violations, expected %s, %s",
				rep.Violations(), expected, time.Duration(rep.Duration).Round(time.Millisecond)))

		if rep.Result == nil {
			continue
		}
		for _, rule := range rep.Result.Violations {
			impact := rule.Impact
			ic, ok := impacts[impact]
			if !ok {
				ic = faint
			}
			fmt.Fprintf(&sb, "      %s %s %s\n", ic.Sprintf("%-8s", impact), rule.ID,
				faint.Sprintf("(%d nodes)", len(rule.Nodes)))
		}
	}

	c := green
	if passed != len(reports) {
		c = red
	}
	fmt.Fprintf(&sb, "\n  %s\n\n", c.Sprintf("%d/%d scans passed", passed, len(reports)))
	_, _ = io.WriteString(w, sb.String())
}
