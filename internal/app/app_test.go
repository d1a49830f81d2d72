package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentplatform/internal/config"
)

const agentsYAML = `
agents:
  - agent_name: Docs_Agent
    description: answers questions from the handbook
    tools: [knowledge_lookup]
    tool_configs:
      knowledge_lookup:
        collection: handbook
  - agent_name: Clock_Agent
    description: tells the time anywhere
    tools: [current_time]
  - agent_name: Search_Agent
    description: searches the web
    tools: [web_search]
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Orchestrator.AgentsFile = filepath.Join(dir, "agents.yaml")
	cfg.Knowledge.Path = filepath.Join(dir, "kb", "knowledge.db")
	cfg.LLMs["openai"].APIKey = "sk-test"
	require.NoError(t, os.WriteFile(cfg.Orchestrator.AgentsFile, []byte(agentsYAML), 0o644))
	return cfg
}

func TestNewWiresSystem(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Equal(t, 6, a.Catalog.Len())
	assert.NotNil(t, a.MetricsHandler)
	require.NotNil(t, a.Knowledge)

	report, err := a.Manager.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs_Agent", "Clock_Agent"}, report.Agents)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "Search_Agent")
	assert.Contains(t, report.Failures[0], "api_key")
}

func TestNewCatalogFromFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Orchestrator.ToolsFile = filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(cfg.Orchestrator.ToolsFile, []byte(`
tools:
  - id: support_time
    implementation: current_time
    description: Current time at the support desk.
    parameters:
      timezone: {type: string, hidden: true, default: Europe/Berlin}
`), 0o644))

	c, err := NewCatalog(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	_, err = c.Resolve("support_time")
	assert.NoError(t, err)
}

func TestNewProviderRequiresConfiguredLLM(t *testing.T) {
	cfg := config.Defaults()
	cfg.DefaultLLM = "missing"
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
