package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aaronjoyvictor/seam-mcp/api"
)

func TestNewToolRegistry_EmbeddedContract(t *testing.T) {
	registry, err := NewToolRegistry(api.ToolsContract)
	require.NoError(t, err)

	tools := registry.List()
	require.Len(t, tools, 2)
	require.Equal(t, "lock_door", tools[0].Name)
	require.Equal(t, "unlock_door", tools[1].Name)

	lock, ok := registry.Lookup(" lock_door ")
	require.True(t, ok)
	require.Equal(t, "write", lock.Capability)
	require.Equal(t, "Locks the door.", lock.Description)
	require.Equal(t, []string{"locks:write"}, lock.RequiredScopes)
	require.False(t, lock.ConfirmationRequired)
	require.Equal(t, "object", lock.InputSchema["type"])

	unlock, ok := registry.Lookup("unlock_door")
	require.True(t, ok)
	require.Equal(t, "Unlocks the door.", unlock.Description)
}

func TestNewToolRegistry_DefaultsInputSchema(t *testing.T) {
	registry, err := NewToolRegistry([]byte(`
tools:
  - name: lock_door
    capability: write
`))
	require.NoError(t, err)

	tool, ok := registry.Lookup("lock_door")
	require.True(t, ok)
	require.Equal(t, map[string]any{"type": "object"}, tool.InputSchema)
}

func TestNewToolRegistry_DuplicateName(t *testing.T) {
	_, err := NewToolRegistry([]byte(`
tools:
  - name: lock_door
    capability: write
  - name: lock_door
    capability: write
`))
	require.ErrorContains(t, err, "duplicate tool")
}

func TestNewToolRegistry_Empty(t *testing.T) {
	_, err := NewToolRegistry([]byte(`tools: []`))
	require.ErrorContains(t, err, "no tools")
}

func TestNewToolRegistry_MissingCapability(t *testing.T) {
	_, err := NewToolRegistry([]byte(`
tools:
  - name: lock_door
`))
	require.ErrorContains(t, err, "empty capability")
}

func TestNewToolRegistry_InvalidYAML(t *testing.T) {
	_, err := NewToolRegistry([]byte(`tools: [`))
	require.ErrorContains(t, err, "decoding tool contract")
}

func TestToolRegistry_RequireConfirmation(t *testing.T) {
	registry, err := NewToolRegistry(api.ToolsContract)
	require.NoError(t, err)

	require.NoError(t, registry.RequireConfirmation("unlock_door"))
	require.ErrorContains(t, registry.RequireConfirmation("open_garage"), "unknown tool")

	unlock, _ := registry.Lookup("unlock_door")
	require.True(t, unlock.ConfirmationRequired)
	lock, _ := registry.Lookup("lock_door")
	require.False(t, lock.ConfirmationRequired)
	require.True(t, registry.List()[1].ConfirmationRequired)
}
