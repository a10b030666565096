package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/scenario"
)

// cmdRun handles the `a11yscan run` sub-command
type cmdRun struct {
	gs      *state.GlobalState
	runtime runtimeFlags
}

func (c *cmdRun) run(cmd *cobra.Command, args []string) error {
	conf, err := c.runtime.config(c.gs, cmd.Flags())
	if err != nil {
		return err
	}
	kinds, err := c.runtime.browserKinds()
	if err != nil {
		return err
	}

	path, err := resolvePath(c.gs, args[0])
	if err != nil {
		return err
	}
	scenarios, err := scenario.LoadFile(c.gs.FS, path)
	if err != nil {
		return err
	}
	if len(kinds) > 0 {
		for i := range scenarios {
			scenarios[i].Browsers = kinds
		}
	}
	c.gs.Logger.Debugf("Loaded %d scenarios from %s", len(scenarios), path)

	s, err := newScanner(c.gs.Ctx, c.gs, conf, "run")
	if err != nil {
		return err
	}
	return s.scan(c.gs.Ctx, scenarios, c.runtime.report)
}

func getCmdRun(gs *state.GlobalState) *cobra.Command {
	c := &cmdRun{gs: gs}

	runCmd := &cobra.Command{
		Use:   "run [flags] scenarios.yaml",
		Short: "Run the scans of a scenario file",
		Long: `Run the scans of a scenario file.

Scenarios are run one at a time, in every browser they list. Relative
pages are resolved against the directory of the scenario file.`,
		Example: `
  # Run the scenarios in Chrome only and keep the reports.
  a11yscan run --browser chrome --report reports.json scenarios.yaml`[1:],
		Args: exactArgsWithMsg(1, "arg should be a path of a scenario file"),
		RunE: c.run,
	}

	runCmd.Flags().SortFlags = false
	runCmd.Flags().AddFlagSet(c.runtime.flagSet())

	return runCmd
}
