// Package policy defines execution guardrails for lock tool calls.
package policy

import (
	"fmt"
	"strings"
)

const (
	// ModeReadOnly advertises tools but refuses to run write capability tools.
	ModeReadOnly = "read-only"
	// ModeReadWrite runs lock and unlock tools.
	ModeReadWrite = "read-write"

	// CapabilityRead marks tools without side effects.
	CapabilityRead = "read"
	// CapabilityWrite marks tools that change device state.
	CapabilityWrite = "write"
)

// Guard enforces mode-based tool execution policy.
type Guard struct {
	mode string
}

// NewGuard validates mode and returns an execution guard. An empty mode is read-write.
func NewGuard(mode string) (*Guard, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = ModeReadWrite
	}

	switch normalized {
	case ModeReadOnly, ModeReadWrite:
		return &Guard{mode: normalized}, nil
	default:
		return nil, fmt.Errorf("invalid mode %q (allowed: %s|%s)", normalized, ModeReadOnly, ModeReadWrite)
	}
}

// Mode returns the resolved mode.
func (g *Guard) Mode() string {
	if g == nil {
		return ModeReadWrite
	}
	return g.mode
}

// AuthorizeTool allows or denies tool execution based on tool capability.
func (g *Guard) AuthorizeTool(name, capability string) error {
	toolName := strings.TrimSpace(name)
	if toolName == "" {
		toolName = "unknown"
	}

	switch strings.ToLower(strings.TrimSpace(capability)) {
	case CapabilityRead:
		return nil
	case CapabilityWrite:
		if g.Mode() == ModeReadWrite {
			return nil
		}
		return fmt.Errorf("tool %s requires read-write mode", toolName)
	default:
		return fmt.Errorf("tool %s has unknown capability %q", toolName, strings.TrimSpace(capability))
	}
}
