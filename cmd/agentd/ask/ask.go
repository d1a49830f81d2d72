package ask

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agentplatform/internal/app"
	"agentplatform/internal/orchestrator"
)

var agentName string

var Cmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one request through the agent system and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if _, err := a.Manager.Reload(ctx); err != nil {
			return err
		}

		res := a.Manager.Execute(ctx, orchestrator.Request{
			Message:     strings.Join(args, " "),
			TargetAgent: agentName,
		})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("request failed: %s", res.ErrorCode)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&agentName, "agent", "", "send directly to this agent instead of routing")
}
