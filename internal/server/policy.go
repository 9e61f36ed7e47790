package server

import (
	"fmt"
	"net/http"

	"github.com/aaronjoyvictor/seam-mcp/internal/policy"
)

// ToolAuthorizer is the central policy gate for all tool executions.
type ToolAuthorizer interface {
	Mode() string
	AuthorizeTool(name, capability string) error
}

func authorizeToolCall(authorizer ToolAuthorizer, tool ToolSpec) error {
	if authorizer == nil {
		return nil
	}
	if err := authorizer.AuthorizeTool(tool.Name, tool.Capability); err != nil {
		return fmt.Errorf("tool authorization denied: %w", err)
	}
	return nil
}

func resolvedMode(authorizer ToolAuthorizer) string {
	if authorizer == nil {
		return policy.ModeReadWrite
	}
	return authorizer.Mode()
}

// checkToolCall runs the mode, confirmation and scope gates in order.
func checkToolCall(authorizer ToolAuthorizer, tool ToolSpec, args map[string]any, principal SessionPrincipal) error {
	if err := authorizeToolCall(authorizer, tool); err != nil {
		return &policyError{status: http.StatusForbidden, err: err}
	}
	if err := policy.RequireConfirmation(tool.Name, tool.ConfirmationRequired, args); err != nil {
		return &policyError{status: http.StatusBadRequest, err: err}
	}
	if err := requireToolScopes(tool, principal); err != nil {
		return &policyError{status: http.StatusForbidden, err: err}
	}
	return nil
}

type policyError struct {
	status int
	err    error
}

func (e *policyError) Error() string   { return e.err.Error() }
func (e *policyError) Unwrap() error   { return e.err }
func (e *policyError) StatusCode() int { return e.status }
