package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agentplatform/cmd/agentd/ask"
	"agentplatform/cmd/agentd/check"
	"agentplatform/cmd/agentd/kb"
	"agentplatform/cmd/agentd/serve"
	"agentplatform/cmd/agentd/setup"
	"agentplatform/cmd/agentd/tools"
	"agentplatform/internal/config"
	"agentplatform/internal/logger"
)

func main() {
	logger.Init("info", "json")
	rootCmd := &cobra.Command{
		Use:           "agentd",
		Short:         "agentd routes requests across configurable LLM agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config.toml (default: user config dir)")

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(check.Cmd)
	rootCmd.AddCommand(ask.Cmd)
	rootCmd.AddCommand(tools.Cmd)
	rootCmd.AddCommand(kb.Cmd)
	rootCmd.AddCommand(setup.Cmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
