package orchestrator

import (
	"fmt"
	"strings"

	"agentplatform/internal/config"
)

const masterPreamble = `You coordinate a team of specialised agents. Each agent is available to you as a tool whose description says what it handles.

Route every request to the single agent whose description matches it most specifically, and call it with a self-contained query. Call one agent at a time and read its answer before deciding what to do next. If an agent fails or cannot help, you may try another agent that also fits. Answer directly, without calling an agent, only for greetings or when no agent covers the request. Once you have what the user needs, reply with it.`

func masterInstructions(agents []AgentInfo) string {
	var b strings.Builder
	b.WriteString(masterPreamble)
	b.WriteString("\n\nAgents:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
	}
	return b.String()
}

func agentInstructions(def config.AgentDefinition, toolNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n\n", def.Name, def.Description)
	if len(toolNames) > 0 {
		fmt.Fprintf(&b, "Tools: %s. Use them when they help answer the request. If a tool fails, try another approach or explain what went wrong.\n", strings.Join(toolNames, ", "))
	}
	b.WriteString("If a request is outside your purpose, say so briefly instead of guessing.")
	if def.Instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(def.Instructions)
	}
	return b.String()
}
