package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentsYAML = `
agents:
  - agent_name: IT_Agent
    description: handles technical issues
    tools: [knowledge_lookup, jira]
    llm_config:
      model_name: gpt-4o-mini
      temperature: 0
    tool_configs:
      jira:
        base_url: https://jira.example.com
        username: ${JIRA_USER}
        api_token: ${JIRA_TOKEN:-fallback}
  - agent_name: HR_Agent
    description: handles leave requests
    max_steps: 3
    instructions: Always cite the policy section.
`

func TestParseDefinitionsYAML(t *testing.T) {
	t.Setenv("JIRA_USER", "svc-bot")
	t.Setenv("JIRA_TOKEN", "")

	defs, err := ParseDefinitions([]byte(agentsYAML), "yaml")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	it := defs[0]
	assert.Equal(t, "IT_Agent", it.Name)
	assert.Equal(t, []string{"knowledge_lookup", "jira"}, it.Tools)
	assert.Equal(t, "gpt-4o-mini", it.LLM.Model)
	require.NotNil(t, it.LLM.Temperature)
	assert.Equal(t, 0.0, it.LLM.EffectiveTemperature())
	assert.Equal(t, "svc-bot", it.ToolConfigs["jira"]["username"])
	assert.Equal(t, "fallback", it.ToolConfigs["jira"]["api_token"])

	hr := defs[1]
	assert.Equal(t, 3, hr.MaxSteps)
	assert.Equal(t, DefaultAgentTemperature, hr.LLM.EffectiveTemperature())
	assert.Equal(t, "Always cite the policy section.", hr.Instructions)
}

func TestParseDefinitionsJSONList(t *testing.T) {
	doc := `[
	  {"agent_name": "Researcher", "description": "finds things on the web", "tools": ["web_search"],
	   "llm_config": {"model_name": "gpt-4o", "temperature": 0.7}}
	]`
	defs, err := ParseDefinitions([]byte(doc), "json")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, 0.7, defs[0].LLM.EffectiveTemperature())
}

func TestParseDefinitionsTOML(t *testing.T) {
	doc := `
[[agents]]
agent_name = "Clock"
description = "tells the time"
tools = ["current_time"]

[agents.llm_config]
temperature = 1.5
`
	defs, err := ParseDefinitions([]byte(doc), "toml")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Clock", defs[0].Name)
	assert.Equal(t, 1.5, defs[0].LLM.EffectiveTemperature())
}

func TestValidateDefinitionsReportsEveryProblem(t *testing.T) {
	hot := 3.0
	err := ValidateDefinitions([]AgentDefinition{
		{Name: "A", Description: "first"},
		{Name: "A", Description: "dup"},
		{Name: "", Description: ""},
		{Name: "B", Description: "too hot", LLM: AgentLLM{Temperature: &hot}},
	})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 4)
	assert.Contains(t, err.Error(), "duplicate name")
	assert.Contains(t, err.Error(), "agent_name is required")
	assert.Contains(t, err.Error(), "description is required")
	assert.Contains(t, err.Error(), "temperature must be between 0 and 2")
}

func TestValidateDefinitionsAgentNameFormat(t *testing.T) {
	err := ValidateDefinitions([]AgentDefinition{
		{Name: "IT Agent", Description: "spaces"},
		{Name: "ok_name-2", Description: "fine"},
	})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Problems, 1)
	assert.Contains(t, cfgErr.Problems[0], `agent "IT Agent"`)
}

func TestValidateDefinitionsEmpty(t *testing.T) {
	var cfgErr *ConfigError
	require.ErrorAs(t, ValidateDefinitions(nil), &cfgErr)
	assert.Equal(t, []string{"no agent definitions"}, cfgErr.Problems)
}

func TestParseDefinitionsRejectsUnknownKeys(t *testing.T) {
	_, err := ParseDefinitions([]byte(`[{"agent_name": "A", "description": "d", "toolz": []}]`), "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toolz")
}

func TestLoadDefinitionsWrapsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDefinitions(filepath.Join(dir, "missing.yaml"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("agents: [ {"), 0o644))
	_, err = LoadDefinitions(broken)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, broken, cfgErr.Source)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"agent_name": "x"}]`), 0o644))
	_, err = LoadDefinitions(invalid)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, invalid, cfgErr.Source)
	assert.Contains(t, cfgErr.Problems[0], "description is required")

	_, err = LoadDefinitions(filepath.Join(dir, "agents.ini"))
	require.ErrorAs(t, err, &cfgErr)
}

func TestDefinitionFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(agentsYAML), 0o644))

	defs, err := DefinitionFile{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}
