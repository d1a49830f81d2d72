package orchestrator

import "agentplatform/internal/llm"

// Request is one user turn. History is prior conversation, oldest first.
type Request struct {
	Message string
	History []llm.Message
	// TargetAgent, when it names a compiled agent, bypasses routing.
	TargetAgent string
	// RequestID is generated when empty.
	RequestID string
}

// Step records one agent invocation made while serving a request.
type Step struct {
	Order       int      `json:"order"`
	Executor    string   `json:"executor"`
	Input       string   `json:"input"`
	Observation string   `json:"observation"`
	IsError     bool     `json:"isError"`
	ToolsUsed   []string `json:"toolsUsed,omitempty"`

	// resolved is false when the model named an agent that does not exist.
	resolved bool
}

// Result is always well formed, whatever failed while producing it.
type Result struct {
	RequestID         string   `json:"requestId"`
	Response          string   `json:"response"`
	Steps             []Step   `json:"steps"`
	AgentsUsed        []string `json:"agentsUsed"`
	ToolsUsed         []string `json:"toolsUsed"`
	TopLevelReasoning string   `json:"topLevelReasoning"`
	Success           bool     `json:"success"`
	ErrorCode         string   `json:"errorCode,omitempty"`
	Exhausted         bool     `json:"exhausted"`
}

// Err maps the result onto the error taxonomy: ErrRoutingExhausted when the
// call bound was hit, nil otherwise.
func (r *Result) Err() error {
	if r.Exhausted {
		return ErrRoutingExhausted
	}
	return nil
}

// Outcome is a low-cardinality label for metrics.
func (r *Result) Outcome() string {
	switch {
	case !r.Success:
		return "failure"
	case r.Exhausted:
		return "exhausted"
	default:
		return "success"
	}
}

// Failure builds the generic user-facing failure result.
func Failure(requestID, code string) *Result {
	return &Result{
		RequestID:  requestID,
		Response:   GenericApology,
		Steps:      []Step{},
		AgentsUsed: []string{},
		ToolsUsed:  []string{},
		ErrorCode:  code,
	}
}

// finish derives the response and usage lists from the recorded steps.
// answer is the model's final text, if it produced one.
func (r *Result) finish(answer string) {
	r.AgentsUsed = []string{}
	r.ToolsUsed = []string{}
	agents := map[string]bool{}
	toolSeen := map[string]bool{}
	best := ""
	for _, s := range r.Steps {
		if s.resolved && !agents[s.Executor] {
			agents[s.Executor] = true
			r.AgentsUsed = append(r.AgentsUsed, s.Executor)
		}
		for _, t := range s.ToolsUsed {
			if !toolSeen[t] {
				toolSeen[t] = true
				r.ToolsUsed = append(r.ToolsUsed, t)
			}
		}
		if !s.IsError && len(s.Observation) > len(best) {
			best = s.Observation
		}
	}

	switch {
	case len(r.Steps) == 0:
		r.Response = answer
	case best != "":
		r.Response = best
	case answer != "":
		r.Response = answer
	default:
		r.Response = r.TopLevelReasoning
	}

	r.Success = r.Response != ""
	if r.Exhausted && r.ErrorCode == "" {
		r.ErrorCode = CodeRoutingExhausted
	}
	if !r.Success {
		r.Response = GenericApology
		if r.ErrorCode == "" {
			r.ErrorCode = CodeAgentFailed
		}
	}
}
