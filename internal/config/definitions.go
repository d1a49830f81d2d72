package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultAgentTemperature applies when llm_config.temperature is omitted.
const DefaultAgentTemperature = 0.2

// Agent names are exposed to the routing model as function names.
var agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// AgentDefinition is one declarative agent record.
type AgentDefinition struct {
	Name         string                    `yaml:"agent_name"`
	Description  string                    `yaml:"description"`
	Tools        []string                  `yaml:"tools"`
	LLM          AgentLLM                  `yaml:"llm_config"`
	ToolConfigs  map[string]map[string]any `yaml:"tool_configs"`
	MaxSteps     int                       `yaml:"max_steps"`
	Instructions string                    `yaml:"instructions"`
}

type AgentLLM struct {
	Model       string   `yaml:"model_name"`
	Temperature *float64 `yaml:"temperature"`
}

// EffectiveTemperature returns the configured temperature or the default.
func (l AgentLLM) EffectiveTemperature() float64 {
	if l.Temperature == nil {
		return DefaultAgentTemperature
	}
	return *l.Temperature
}

// DefinitionFile loads agent definitions from a path on every call.
type DefinitionFile struct {
	Path string
}

func (f DefinitionFile) Load(_ context.Context) ([]AgentDefinition, error) {
	return LoadDefinitions(f.Path)
}

// LoadDefinitions reads, expands and validates an agent definition file.
// Any failure is returned as *ConfigError.
func LoadDefinitions(path string) ([]AgentDefinition, error) {
	data, format, err := readSource(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	defs, err := ParseDefinitions(data, format)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
			return nil, cfgErr
		}
		return nil, &ConfigError{Source: path, Err: err}
	}
	return defs, nil
}

// ParseDefinitions decodes and validates definitions. format is "yaml",
// "json" or "toml". The document is either a bare list or a table with an
// "agents" list.
func ParseDefinitions(data []byte, format string) ([]AgentDefinition, error) {
	raw, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}

	var defs []AgentDefinition
	if err := Decode(ListOf(raw, "agents"), &defs); err != nil {
		return nil, err
	}
	if err := ValidateDefinitions(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// ValidateDefinitions checks a snapshot as a whole and reports every problem.
func ValidateDefinitions(defs []AgentDefinition) error {
	var problems []string
	if len(defs) == 0 {
		problems = append(problems, "no agent definitions")
	}

	seen := make(map[string]int, len(defs))
	for i, d := range defs {
		label := fmt.Sprintf("agents[%d]", i)
		if d.Name != "" {
			label = fmt.Sprintf("agent %q", d.Name)
		}

		if strings.TrimSpace(d.Name) == "" {
			problems = append(problems, label+": agent_name is required")
		} else if !agentNamePattern.MatchString(d.Name) {
			problems = append(problems, label+": agent_name may only contain letters, digits, '_' and '-' (max 64)")
		} else if first, dup := seen[d.Name]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate name (first at agents[%d])", label, first))
		} else {
			seen[d.Name] = i
		}
		if strings.TrimSpace(d.Description) == "" {
			problems = append(problems, label+": description is required")
		}
		if t := d.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
			problems = append(problems, label+": llm_config.temperature must be between 0 and 2")
		}
		if d.MaxSteps < 0 {
			problems = append(problems, label+": max_steps must not be negative")
		}
		for _, id := range d.Tools {
			if strings.TrimSpace(id) == "" {
				problems = append(problems, label+": empty tool id")
			}
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Source: "agent definitions", Problems: problems}
	}
	return nil
}

