package tools

import (
	"fmt"
	"sort"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

func (t ParamType) valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// ParamSpec declares one tool parameter. Hidden and credential parameters are
// bound per agent at compile time and never shown to a model.
type ParamSpec struct {
	Type         ParamType `yaml:"type" json:"type"`
	Description  string    `yaml:"description" json:"description,omitempty"`
	Required     bool      `yaml:"required" json:"required"`
	Hidden       bool      `yaml:"hidden" json:"hidden,omitempty"`
	IsCredential bool      `yaml:"is_credential" json:"is_credential,omitempty"`
	Default      any       `yaml:"default" json:"default,omitempty"`
	Enum         []any     `yaml:"enum" json:"enum,omitempty"`
}

// bound reports whether the parameter is supplied by configuration only.
func (p ParamSpec) bound() bool { return p.Hidden || p.IsCredential }

// Spec is a catalog record. Implementation names the built-in Func that
// backs it; several specs may share one implementation.
type Spec struct {
	ID             string               `yaml:"id" json:"id"`
	Name           string               `yaml:"name" json:"name"`
	Description    string               `yaml:"description" json:"description"`
	Implementation string               `yaml:"implementation" json:"implementation"`
	Parameters     map[string]ParamSpec `yaml:"parameters" json:"parameters"`
	// RateLimit is calls per minute per agent; zero means unlimited.
	RateLimit float64 `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute,omitempty"`
}

func (s Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("tool spec: id is required")
	}
	if s.Description == "" {
		return fmt.Errorf("tool %q: description is required", s.ID)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("tool %q: rate_limit_per_minute must not be negative", s.ID)
	}
	for _, name := range s.ParamNames() {
		p := s.Parameters[name]
		if !p.Type.valid() {
			return fmt.Errorf("tool %q: parameter %q has invalid type %q", s.ID, name, p.Type)
		}
	}
	return nil
}

// ParamNames returns parameter names in sorted order.
func (s Spec) ParamNames() []string {
	names := make([]string, 0, len(s.Parameters))
	for name := range s.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Redacted returns a copy safe to show to operators: credential defaults are
// dropped.
func (s Spec) Redacted() Spec {
	out := s
	out.Parameters = make(map[string]ParamSpec, len(s.Parameters))
	for name, p := range s.Parameters {
		if p.IsCredential {
			p.Default = nil
		}
		out.Parameters[name] = p
	}
	return out
}
