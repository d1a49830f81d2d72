package orchestrator

// AgentInfo describes a compiled agent for listings and comparisons.
type AgentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
	Model       string   `json:"model,omitempty"`
	MaxSteps    int      `json:"maxSteps"`
}

// Set is an immutable, ordered collection of compiled agents.
type Set struct {
	agents []*SubAgent
	byName map[string]*SubAgent
}

func newSet(agents []*SubAgent) *Set {
	s := &Set{agents: agents, byName: make(map[string]*SubAgent, len(agents))}
	for _, a := range agents {
		s.byName[a.Name()] = a
	}
	return s
}

func (s *Set) Get(name string) (*SubAgent, bool) {
	a, ok := s.byName[name]
	return a, ok
}

func (s *Set) Len() int { return len(s.agents) }

func (s *Set) Agents() []*SubAgent {
	return append([]*SubAgent(nil), s.agents...)
}

// Info returns the structural description of every agent, in order. Two
// sets compiled from the same definitions have equal Info.
func (s *Set) Info() []AgentInfo {
	out := make([]AgentInfo, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a.Info())
	}
	return out
}
