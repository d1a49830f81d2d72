package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"agentplatform/internal/agent"
	"agentplatform/internal/config"
	"agentplatform/internal/llm"
	"agentplatform/internal/orchestrator"
	"agentplatform/internal/tools"
)

const (
	requestIDHeader = "X-Request-ID"
	routerName      = "MasterAgent"
	maxObservation  = 200
)

type historyMessage struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

type chatRequest struct {
	Message   string           `json:"message"`
	History   []historyMessage `json:"history"`
	AgentName string           `json:"agentName"`
	SessionID string           `json:"sessionId"`
}

type executionStep struct {
	ToolName    string `json:"toolName"`
	ToolInput   string `json:"toolInput"`
	Observation string `json:"observation"`
}

type executionDetails struct {
	ExecutionSteps []executionStep `json:"executionSteps"`
	TotalSteps     int             `json:"totalSteps"`
}

type chatResponse struct {
	Success             bool             `json:"success"`
	Response            string           `json:"response"`
	AgentName           string           `json:"agentName"`
	AgentsUsed          []string         `json:"agentsUsed"`
	ToolsUsed           []string         `json:"toolsUsed"`
	ExecutionDetails    executionDetails `json:"executionDetails"`
	MasterAgentThinking string           `json:"masterAgentThinking"`
	ErrorCode           string           `json:"errorCode,omitempty"`
	Exhausted           bool             `json:"exhausted,omitempty"`
	RequestID           string           `json:"requestId"`
	SessionID           string           `json:"sessionId,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChat(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	res := s.system.Execute(r.Context(), req.toOrchestrator(requestID(r)))
	w.Header().Set(requestIDHeader, res.RequestID)

	status := http.StatusOK
	if res.ErrorCode == orchestrator.CodeNotReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, newChatResponse(req, res))
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"agents": s.system.Agents()}
	if report := s.system.LastReport(); report != nil {
		data["lastReload"] = report
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	specs := s.catalog.Specs()
	out := make([]tools.Spec, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.Redacted())
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"tools": out}})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	report, err := s.system.Reload(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, envelope{Data: report, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: report})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	n := len(s.system.Agents())
	if n == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "agents": n})
}

func decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("request body too large (max %d bytes)", tooLarge.Limit)
		}
		return req, errors.New("invalid JSON body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return req, errors.New("message is required")
	}
	for i, m := range req.History {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
		default:
			return req, fmt.Errorf("history[%d]: role must be %q or %q", i, llm.RoleUser, llm.RoleAssistant)
		}
	}
	return req, nil
}

func (c chatRequest) toOrchestrator(id string) orchestrator.Request {
	history := make([]llm.Message, 0, len(c.History))
	for _, m := range c.History {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return orchestrator.Request{
		Message:     c.Message,
		History:     history,
		TargetAgent: c.AgentName,
		RequestID:   id,
	}
}

func newChatResponse(req chatRequest, res *orchestrator.Result) chatResponse {
	name := routerName
	if req.AgentName != "" && len(res.Steps) == 1 && res.Steps[0].Executor == req.AgentName {
		name = req.AgentName
	}

	steps := make([]executionStep, 0, len(res.Steps))
	for _, st := range res.Steps {
		steps = append(steps, executionStep{
			ToolName:    st.Executor,
			ToolInput:   st.Input,
			Observation: truncate(st.Observation, maxObservation),
		})
	}

	return chatResponse{
		Success:    res.Success,
		Response:   res.Response,
		AgentName:  name,
		AgentsUsed: nonNil(res.AgentsUsed),
		ToolsUsed:  nonNil(res.ToolsUsed),
		ExecutionDetails: executionDetails{
			ExecutionSteps: steps,
			TotalSteps:     len(steps),
		},
		MasterAgentThinking: res.TopLevelReasoning,
		ErrorCode:           res.ErrorCode,
		Exhausted:           res.Exhausted,
		RequestID:           res.RequestID,
		SessionID:           req.SessionID,
	}
}

// requestID honours a caller-supplied id so logs can be correlated across
// services.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

// emitter forwards agent events to an SSE stream.
func emitter(sse *SSEWriter) func(agent.Event) {
	return func(ev agent.Event) {
		if err := sse.Send(string(ev.Type), ev.Data); err != nil {
			slog.Debug("sse send failed", "event", ev.Type, "error", err)
		}
	}
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChat(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	id := requestID(r)
	w.Header().Set(requestIDHeader, id)
	sse := NewSSEWriter(w)

	ctx := agent.ContextWithEmit(r.Context(), emitter(sse))
	res := s.system.Execute(ctx, req.toOrchestrator(id))

	if !res.Success {
		sse.Send(string(agent.EventError), map[string]string{"errorCode": res.ErrorCode, "response": res.Response})
	}
	sse.Send(string(agent.EventDone), newChatResponse(req, res))
}
