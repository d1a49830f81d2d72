package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentplatform/internal/config"
)

func TestCatalogRegisterResolve(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Spec{ID: "echo", Description: "echoes"}, echo))

	e, err := c.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", e.Spec.Name, "name defaults to id")

	_, err = c.Resolve("ghost_tool")
	var nf *ToolNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost_tool", nf.ID)
	assert.Contains(t, err.Error(), "ghost_tool")
}

func TestCatalogRejectsInvalidSpecs(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Spec{ID: "a", Description: "d"}, echo))

	assert.Error(t, c.Register(Spec{ID: "a", Description: "again"}, echo))
	assert.Error(t, c.Register(Spec{Description: "no id"}, echo))
	assert.Error(t, c.Register(Spec{ID: "b"}, echo))
	assert.Error(t, c.Register(Spec{ID: "c", Description: "d"}, nil))
	assert.Error(t, c.Register(Spec{
		ID: "d", Description: "d",
		Parameters: map[string]ParamSpec{"x": {Type: "date"}},
	}, echo))
	assert.Equal(t, 1, c.Len())
}

func TestCatalogSeal(t *testing.T) {
	c := NewCatalog()
	c.Seal()
	err := c.Register(Spec{ID: "late", Description: "d"}, echo)
	assert.ErrorIs(t, err, ErrCatalogSealed)
}

func TestCatalogSpecsSorted(t *testing.T) {
	c, err := NewDefaultCatalog(nil, Builtins{})
	require.NoError(t, err)

	var ids []string
	for _, s := range c.Specs() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"confluence", "current_time", "jira", "knowledge_lookup", "web_fetch", "web_search"}, ids)
}

func TestSpecRedacted(t *testing.T) {
	s := Spec{ID: "x", Description: "d", Parameters: map[string]ParamSpec{
		"key":  {Type: TypeString, IsCredential: true, Default: "secret"},
		"mode": {Type: TypeString, Default: "fast"},
	}}
	r := s.Redacted()
	assert.Nil(t, r.Parameters["key"].Default)
	assert.Equal(t, "fast", r.Parameters["mode"].Default)
	assert.Equal(t, "secret", s.Parameters["key"].Default, "original untouched")
}

func TestLoadSpecs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - id: hr_docs
    name: HR handbook
    description: Search the HR handbook.
    implementation: knowledge_lookup
    parameters:
      query: {type: string, required: true}
      collection: {type: string, hidden: true, default: hr}
  - id: current_time
    description: Current time.
    rate_limit_per_minute: 10
    parameters:
      timezone: {type: string, default: UTC}
`), 0o644))

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "knowledge_lookup", specs[0].Implementation)
	assert.True(t, specs[0].Parameters["collection"].Hidden)
	assert.Equal(t, "current_time", specs[1].Implementation)
	assert.Equal(t, 10.0, specs[1].RateLimit)

	c := NewCatalog()
	require.NoError(t, RegisterAll(c, specs, Builtins{}.Funcs()))
	_, err = c.Resolve("hr_docs")
	assert.NoError(t, err)
}

func TestLoadSpecsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
	  {"id": "a", "description": "d", "parameters": {"x": {"type": "uuid"}}},
	  {"id": "b", "description": "d"},
	  {"id": "b", "description": "d"}
	]`), 0o644))

	_, err := LoadSpecs(path)
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 2)

	err = RegisterAll(NewCatalog(), []Spec{{ID: "x", Description: "d", Implementation: "nope"}}, Builtins{}.Funcs())
	assert.ErrorContains(t, err, `unknown implementation "nope"`)
}
