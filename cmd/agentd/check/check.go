package check

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"agentplatform/internal/app"
)

var (
	agentsFile string
	toolsFile  string
)

var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Validate and compile the agent definitions without serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		if agentsFile != "" {
			cfg.Orchestrator.AgentsFile = agentsFile
		}
		if toolsFile != "" {
			cfg.Orchestrator.ToolsFile = toolsFile
		}

		ctx := context.Background()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		out := cmd.OutOrStdout()
		report, err := a.Manager.Reload(ctx)
		for _, name := range report.Agents {
			fmt.Fprintf(out, "ok    %s\n", name)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(out, "FAIL  %s\n", f)
		}
		if err != nil {
			return err
		}
		if len(report.Failures) > 0 {
			return fmt.Errorf("%d agent(s) failed to compile", len(report.Failures))
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&agentsFile, "agents", "", "agent definitions file (overrides config)")
	Cmd.Flags().StringVar(&toolsFile, "tools", "", "tool catalog file (overrides config)")
}
