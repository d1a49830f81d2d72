package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"agentplatform/internal/config"
)

const configTemplate = `default_llm = "openai"

[llm.openai]
model = "gpt-4o-mini"
# api_key falls back to $OPENAI_API_KEY

[gateway]
addr = ":8484"

[orchestrator]
agents_file = "agents.yaml"
max_agent_calls = 5
max_steps = 5
llm_timeout = "60s"
tool_timeout = "30s"
agent_timeout = "120s"
master_temperature = 0.1
watch = true
debounce = "250ms"

[knowledge]
path = "knowledge.db"

[log]
level = "info"
format = "json"
`

const agentsTemplate = `agents:
  - agent_name: Time_Agent
    description: Answers questions about the current date and time in any time zone.
    tools: [current_time]
    llm_config:
      temperature: 0

  - agent_name: Docs_Agent
    description: Answers questions from the internal handbook.
    tools: [knowledge_lookup]
    tool_configs:
      knowledge_lookup:
        collection: handbook

  - agent_name: Web_Agent
    description: Researches public information on the web.
    tools: [web_search, web_fetch]
    tool_configs:
      web_search:
        api_key: ${BRAVE_API_KEY}
`

var force bool

var Cmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a starter config.toml and agents.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.DefaultPath()
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		files := []struct{ path, content string }{
			{path, configTemplate},
			{filepath.Join(dir, "agents.yaml"), agentsTemplate},
		}
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "exists  %s\n", f.path)
				continue
			}
			if err := os.WriteFile(f.path, []byte(f.content), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote   %s\n", f.path)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
}
