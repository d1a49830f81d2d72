package tools

import (
	"errors"
	"fmt"
	"strings"
)

var ErrCatalogSealed = errors.New("tool catalog is sealed")

// ToolNotFoundError is returned when a tool id is not in the catalog.
type ToolNotFoundError struct {
	ID string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.ID)
}

// MissingCredentialError is returned at compile time when an agent does not
// bind every credential or required hidden parameter of a tool.
type MissingCredentialError struct {
	Tool   string
	Agent  string
	Params []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("agent %q: tool %q is missing %s", e.Agent, e.Tool, strings.Join(e.Params, ", "))
}

// InvocationError wraps any failure of a tool call.
type InvocationError struct {
	Tool  string
	Agent string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
