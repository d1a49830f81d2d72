package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonschema"
	"golang.org/x/time/rate"

	"agentplatform/internal/config"
)

// Observer receives the outcome of every tool call.
type Observer interface {
	ObserveTool(ctx context.Context, tool string, elapsed time.Duration, err error)
}

type Option func(*Instance)

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(i *Instance) { i.timeout = d }
}

func WithObserver(o Observer) Option {
	return func(i *Instance) { i.observer = o }
}

// Instance is a catalog entry bound to one agent's parameters. It is
// immutable after Instantiate and safe for concurrent use.
type Instance struct {
	spec     Spec
	agent    string
	fn       Func
	schema   map[string]any
	compiled *jsonschema.Schema
	defaults map[string]any // exposed params the model may omit
	bound    map[string]any // hidden, credential and pinned params
	limiter  *rate.Limiter
	timeout  time.Duration
	observer Observer
}

// Instantiate binds entry for agentName. overrides are the agent's
// tool_configs for this tool; ${VAR} references in string values are
// expanded. Every credential and every required hidden parameter must end up
// bound, otherwise *MissingCredentialError is returned.
func Instantiate(agentName string, entry *Entry, overrides map[string]any, opts ...Option) (*Instance, error) {
	spec := entry.Spec
	inst := &Instance{
		spec:     spec,
		agent:    agentName,
		fn:       entry.Func,
		defaults: make(map[string]any),
		bound:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(inst)
	}

	for key := range overrides {
		if _, ok := spec.Parameters[key]; !ok {
			return nil, fmt.Errorf("agent %q: tool %q has no parameter %q", agentName, spec.ID, key)
		}
	}

	var missing []string
	for _, name := range spec.ParamNames() {
		p := spec.Parameters[name]
		value, pinned := overrides[name]
		if pinned {
			if s, ok := value.(string); ok {
				value = config.ExpandEnv(s)
			}
		}

		switch {
		case p.bound():
			if !pinned || isEmpty(value) {
				value, pinned = p.Default, p.Default != nil
			}
			if !pinned || isEmpty(value) {
				if p.IsCredential || p.Required {
					missing = append(missing, name)
				}
				continue
			}
			inst.bound[name] = value
		case pinned:
			inst.bound[name] = value
		case p.Default != nil:
			inst.defaults[name] = p.Default
		}
	}
	if len(missing) > 0 {
		return nil, &MissingCredentialError{Tool: spec.ID, Agent: agentName, Params: missing}
	}

	inst.schema = exposedSchema(spec, inst.bound)
	raw, err := json.Marshal(inst.schema)
	if err != nil {
		return nil, fmt.Errorf("tool %q: marshal schema: %w", spec.ID, err)
	}
	inst.compiled, err = jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", spec.ID, err)
	}

	if spec.RateLimit > 0 {
		inst.limiter = rate.NewLimiter(rate.Limit(spec.RateLimit)/60.0, 1)
	}
	return inst, nil
}

func (i *Instance) Name() string        { return i.spec.ID }
func (i *Instance) Description() string { return i.spec.Description }
func (i *Instance) InputSchema() any    { return i.schema }
func (i *Instance) Spec() Spec          { return i.spec }

// BoundParams lists the names of parameters fixed by configuration.
func (i *Instance) BoundParams() []string {
	names := make([]string, 0, len(i.bound))
	for name := range i.bound {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the tool with model-supplied JSON arguments. Every failure,
// including a panic in the implementation, comes back as *InvocationError.
func (i *Instance) Execute(ctx context.Context, input string) (out string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &InvocationError{Tool: i.spec.ID, Agent: i.agent, Err: err}
		}
		if i.observer != nil {
			i.observer.ObserveTool(ctx, i.spec.ID, time.Since(start), err)
		}
	}()

	args, err := i.parseArgs(input)
	if err != nil {
		return "", err
	}

	params := make(map[string]any, len(i.defaults)+len(args)+len(i.bound))
	for k, v := range i.defaults {
		params[k] = v
	}
	for k, v := range args {
		params[k] = v
	}
	for k, v := range i.bound {
		params[k] = v
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limited: %w", err)
		}
	}

	out, err = i.fn(ctx, params)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", i.timeout)
	}
	return out, err
}

func (i *Instance) parseArgs(input string) (map[string]any, error) {
	args := map[string]any{}
	if s := strings.TrimSpace(input); s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	for key := range args {
		if _, fixed := i.bound[key]; fixed {
			return nil, fmt.Errorf("parameter %q cannot be set by the caller", key)
		}
		if p, ok := i.spec.Parameters[key]; ok && p.bound() {
			return nil, fmt.Errorf("parameter %q cannot be set by the caller", key)
		}
	}

	result := i.compiled.Validate(args)
	if !result.IsValid() {
		return nil, fmt.Errorf("invalid arguments: %s", result.Error())
	}
	return args, nil
}

// exposedSchema builds the JSON schema a model sees: only parameters it may
// set, never hidden, credential or pinned ones.
func exposedSchema(spec Spec, bound map[string]any) map[string]any {
	properties := map[string]any{}
	required := []string{}

	for _, name := range spec.ParamNames() {
		p := spec.Parameters[name]
		if _, fixed := bound[name]; fixed || p.bound() {
			continue
		}
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		} else if p.Required {
			required = append(required, name)
		}
		properties[name] = prop
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
