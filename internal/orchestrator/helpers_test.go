package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"agentplatform/internal/config"
	"agentplatform/internal/llm"
	"agentplatform/internal/tools"
)

func testCatalog(t *testing.T) *tools.Catalog {
	t.Helper()
	c := tools.NewCatalog()
	require.NoError(t, c.Register(tools.Spec{
		ID:          "kb",
		Description: "Look things up in the knowledge base.",
		Parameters: map[string]tools.ParamSpec{
			"query":      {Type: tools.TypeString, Required: true},
			"collection": {Type: tools.TypeString, Hidden: true, Required: true},
			"token":      {Type: tools.TypeString, IsCredential: true},
		},
	}, func(_ context.Context, p map[string]any) (string, error) {
		return "kb[" + p["collection"].(string) + "]: " + p["query"].(string), nil
	}))
	require.NoError(t, c.Register(tools.Spec{
		ID:          "clock",
		Description: "Tell the time.",
	}, func(context.Context, map[string]any) (string, error) {
		return "noon", nil
	}))
	c.Seal()
	return c
}

func def(name, desc string, toolIDs ...string) config.AgentDefinition {
	d := config.AgentDefinition{Name: name, Description: desc, Tools: toolIDs}
	for _, id := range toolIDs {
		if id == "kb" {
			d.ToolConfigs = map[string]map[string]any{
				"kb": {"collection": strings.ToLower(name), "token": "t0k"},
			}
		}
	}
	return d
}

func isMaster(req llm.Request) bool {
	return strings.HasPrefix(req.Instructions, "You coordinate")
}

func lastMessage(req llm.Request) llm.Message {
	return req.Messages[len(req.Messages)-1]
}

// router answers master turns with master() and sub-agent turns with
// agent(), recording every request.
type router struct {
	mu       sync.Mutex
	requests []llm.Request
	master   func(req llm.Request) (*llm.Response, error)
	agent    func(req llm.Request) (*llm.Response, error)
}

func (r *router) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if isMaster(req) {
		return r.master(req)
	}
	return r.agent(req)
}

func (r *router) masterRequests() []llm.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []llm.Request
	for _, req := range r.requests {
		if isMaster(req) {
			out = append(out, req)
		}
	}
	return out
}

func (r *router) agentRequests() []llm.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []llm.Request
	for _, req := range r.requests {
		if !isMaster(req) {
			out = append(out, req)
		}
	}
	return out
}

func call(name, query string) *llm.Response {
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: "call-" + name, Name: name, Arguments: `{"query":"` + query + `"}`}}}
}

func text(s string) *llm.Response { return &llm.Response{Text: s} }

// keywordRouter picks the agent whose description shares a keyword with the
// request, standing in for a real model's semantic match.
func keywordRouter(keywords map[string]string) func(llm.Request) (*llm.Response, error) {
	return func(req llm.Request) (*llm.Response, error) {
		last := lastMessage(req)
		if last.Role == llm.RoleTool {
			return text("Here is what I found."), nil
		}
		msg := strings.ToLower(last.Content)
		for word, topic := range keywords {
			if !strings.Contains(msg, word) {
				continue
			}
			for _, tool := range req.Tools {
				if strings.Contains(strings.ToLower(tool.Description), topic) {
					return call(tool.Name, last.Content), nil
				}
			}
		}
		return text("I can answer that myself."), nil
	}
}

func buildMaster(t *testing.T, provider llm.Provider, opts MasterOptions, defs ...config.AgentDefinition) *Master {
	t.Helper()
	f := NewFactory(testCatalog(t), provider, Limits{})
	set, errs := f.BuildAll(context.Background(), defs)
	require.Empty(t, errs)
	m, err := NewMaster(set, provider, opts)
	require.NoError(t, err)
	return m
}
