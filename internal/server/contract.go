package server

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultProtocolVersion = "2024-11-05"

	// ServerName is the MCP implementation name advertised on initialize.
	ServerName = "Yale Linus Lock Control"
)

// ToolSpec represents a single MCP tool contract entry.
type ToolSpec struct {
	Name                 string         `yaml:"name" json:"name"`
	Capability           string         `yaml:"capability" json:"capability"`
	Description          string         `yaml:"description,omitempty" json:"description,omitempty"`
	RequiredScopes       []string       `yaml:"requiredScopes,omitempty" json:"requiredScopes,omitempty"`
	ConfirmationRequired bool           `yaml:"confirmationRequired,omitempty" json:"confirmationRequired,omitempty"`
	InputSchema          map[string]any `yaml:"inputSchema,omitempty" json:"inputSchema,omitempty"`
}

type toolContract struct {
	Version    string     `yaml:"version"`
	Service    string     `yaml:"service"`
	APIVersion string     `yaml:"apiVersion"`
	Tools      []ToolSpec `yaml:"tools"`
}

// ToolRegistry provides access to the parsed tools. It is built once at
// startup and read concurrently afterwards.
type ToolRegistry struct {
	order  []string
	byName map[string]ToolSpec
}

// NewToolRegistry parses tools contract YAML and validates minimal invariants.
func NewToolRegistry(contractYAML []byte) (*ToolRegistry, error) {
	var parsed toolContract
	if err := yaml.Unmarshal(contractYAML, &parsed); err != nil {
		return nil, fmt.Errorf("decoding tool contract: %w", err)
	}
	if len(parsed.Tools) == 0 {
		return nil, fmt.Errorf("tool contract has no tools")
	}

	registry := &ToolRegistry{
		order:  make([]string, 0, len(parsed.Tools)),
		byName: make(map[string]ToolSpec, len(parsed.Tools)),
	}
	for _, tool := range parsed.Tools {
		name := strings.TrimSpace(tool.Name)
		if name == "" {
			return nil, fmt.Errorf("tool contract contains empty tool name")
		}
		if _, exists := registry.byName[name]; exists {
			return nil, fmt.Errorf("tool contract contains duplicate tool %q", name)
		}
		tool.Name = name
		tool.Capability = strings.TrimSpace(tool.Capability)
		if tool.Capability == "" {
			return nil, fmt.Errorf("tool %q has empty capability", name)
		}
		tool.Description = strings.TrimSpace(tool.Description)
		if tool.InputSchema == nil {
			tool.InputSchema = map[string]any{"type": "object"}
		}
		registry.order = append(registry.order, name)
		registry.byName[name] = tool
	}

	return registry, nil
}

// RequireConfirmation flags a tool as needing confirm=true. Call it before
// serving.
func (r *ToolRegistry) RequireConfirmation(name string) error {
	tool, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown tool %q", strings.TrimSpace(name))
	}
	tool.ConfirmationRequired = true
	r.byName[tool.Name] = tool
	return nil
}

// List returns all registered tools in contract order.
func (r *ToolRegistry) List() []ToolSpec {
	items := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		items = append(items, r.byName[name])
	}
	return items
}

// Lookup returns a tool by name.
func (r *ToolRegistry) Lookup(name string) (ToolSpec, bool) {
	tool, ok := r.byName[strings.TrimSpace(name)]
	return tool, ok
}
