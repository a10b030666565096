package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
	"github.com/grafana/a11yscan/scenario"
)

// cmdScan handles the `a11yscan scan` sub-command
type cmdScan struct {
	gs *state.GlobalState

	runtime      runtimeFlags
	name         string
	landmark     string
	target       string
	expect       int
	tags         []string
	rules        []string
	disableRules []string
}

func (c *cmdScan) run(cmd *cobra.Command, args []string) error {
	conf, err := c.runtime.config(c.gs, cmd.Flags())
	if err != nil {
		return err
	}
	kinds, err := c.runtime.browserKinds()
	if err != nil {
		return err
	}

	page := args[0]
	if !scenario.IsRemote(page) {
		if page, err = resolvePath(c.gs, page); err != nil {
			return err
		}
	}
	sc := scenario.Scenario{
		Name:          c.name,
		Page:          page,
		Landmark:      c.landmark,
		Target:        c.target,
		Browsers:      kinds,
		Tags:          c.tags,
		Rules:         c.rules,
		DisabledRules: c.disableRules,
	}
	if c.expect >= 0 {
		sc.Expected = null.IntFrom(int64(c.expect))
	}
	sc = sc.WithDefaults()
	if err := sc.Validate(); err != nil {
		return err
	}

	s, err := newScanner(c.gs.Ctx, c.gs, conf, "scan")
	if err != nil {
		return err
	}
	return s.scan(c.gs.Ctx, []scenario.Scenario{sc}, c.runtime.report)
}

func getCmdScan(gs *state.GlobalState) *cobra.Command {
	c := &cmdScan{gs: gs}

	scanCmd := &cobra.Command{
		Use:   "scan [flags] page",
		Short: "Scan a page for accessibility violations",
		Long: `Scan a page for accessibility violations.

The page is loaded in each browser, its landmark element is waited for and
the target element is audited with axe-core. The command fails when the
number of violations differs from --expect.

The driver executables are looked up in the directories named by the
ChromeWebDriver and GeckoWebDriver environment variables, or in the
working directory.`,
		Example: `
  # Scan the list of the main landmark in Chrome and Firefox.
  a11yscan scan --target ul --expect 3 samplePage.html

  # Scan a whole page in headless Firefox against the WCAG 2 A rules.
  a11yscan scan --browser firefox --headless --target "" --tag wcag2a https://example.com`[1:],
		Args: exactArgsWithMsg(1, "arg should be a path or URL of the page to scan"),
		RunE: c.run,
	}

	flags := scanCmd.Flags()
	flags.SortFlags = false
	flags.AddFlagSet(c.runtime.flagSet())
	flags.StringVar(&c.name, "name", "", "name of the scan in the summary and reports (default the page file name)")
	flags.StringVar(&c.landmark, "landmark", scenario.DefaultLandmark,
		"CSS selector of the element the page is ready with")
	flags.StringVar(&c.target, "target", "ul", "CSS selector of the audited element, empty audits the whole page")
	flags.IntVar(&c.expect, "expect", -1, "expected number of violations, negative accepts any")
	flags.StringSliceVar(&c.tags, "tag", nil, "only run the rules with these axe-core tags")
	flags.StringSliceVar(&c.rules, "rule", nil, "only run these axe-core rules")
	flags.StringSliceVar(&c.disableRules, "disable-rule", nil, "skip these axe-core rules")

	return scanCmd
}

// exactArgsWithMsg returns a cobra.PositionalArgs that expects exactly n
// arguments, with msg as the error explanation.
func exactArgsWithMsg(n int, msg string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errext.WithExitCodeIfNone(
				fmt.Errorf("accepts %d arg(s), received %d: %s", n, len(args), msg), exitcodes.InvalidConfig)
		}
		return nil
	}
}
