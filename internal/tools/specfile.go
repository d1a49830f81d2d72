package tools

import (
	"fmt"

	"agentplatform/internal/config"
)

// LoadSpecs reads a tool catalog file: a list of specs, or a table with a
// "tools" list. Implementation defaults to the spec id.
func LoadSpecs(path string) ([]Spec, error) {
	raw, err := config.ReadDocument(path)
	if err != nil {
		return nil, &config.ConfigError{Source: path, Err: err}
	}

	var specs []Spec
	if err := config.Decode(config.ListOf(raw, "tools"), &specs); err != nil {
		return nil, &config.ConfigError{Source: path, Err: err}
	}

	var problems []string
	seen := make(map[string]bool, len(specs))
	for i := range specs {
		if specs[i].Implementation == "" {
			specs[i].Implementation = specs[i].ID
		}
		if err := specs[i].Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[specs[i].ID] {
			problems = append(problems, fmt.Sprintf("tool %q: duplicate id", specs[i].ID))
		}
		seen[specs[i].ID] = true
	}
	if len(problems) > 0 {
		return nil, &config.ConfigError{Source: path, Problems: problems}
	}
	return specs, nil
}

// RegisterAll registers specs against implementations keyed by name.
func RegisterAll(c *Catalog, specs []Spec, impls map[string]Func) error {
	for _, spec := range specs {
		impl, ok := impls[spec.Implementation]
		if !ok {
			return fmt.Errorf("tool %q: unknown implementation %q", spec.ID, spec.Implementation)
		}
		if err := c.Register(spec, impl); err != nil {
			return err
		}
	}
	return nil
}
