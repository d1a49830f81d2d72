package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func is a tool implementation. params holds validated arguments merged
// with the agent's bound values.
type Func func(ctx context.Context, params map[string]any) (string, error)

type Entry struct {
	Spec Spec
	Func Func
}

// Catalog maps tool ids to specs and implementations. It is filled at
// startup, sealed, and then only read while agents are compiled.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	sealed  bool
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

func (c *Catalog) Register(spec Spec, impl Func) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if impl == nil {
		return fmt.Errorf("tool %q: nil implementation", spec.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return fmt.Errorf("register %q: %w", spec.ID, ErrCatalogSealed)
	}
	if _, dup := c.entries[spec.ID]; dup {
		return fmt.Errorf("tool %q already registered", spec.ID)
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	c.entries[spec.ID] = &Entry{Spec: spec, Func: impl}
	return nil
}

func (c *Catalog) Resolve(id string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return nil, &ToolNotFoundError{ID: id}
	}
	return e, nil
}

// Seal rejects further registrations.
func (c *Catalog) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// Specs lists every registered spec sorted by id.
func (c *Catalog) Specs() []Spec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Spec, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
