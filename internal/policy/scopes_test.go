package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireScopes(t *testing.T) {
	require.NoError(t, RequireScopes("lock_door", nil, nil))
	require.NoError(t, RequireScopes("lock_door", []string{"locks:write"}, []string{"locks:write"}))
	require.NoError(t, RequireScopes("lock_door", []string{"locks:write"}, []string{ScopeAdmin}))

	err := RequireScopes("unlock_door", []string{"locks:write", " locks:write "}, []string{"locks:read"})
	require.Error(t, err)
	require.Equal(t, "tool unlock_door missing required scope(s): locks:write (granted: locks:read)", err.Error())

	err = RequireScopes("", []string{"locks:write"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tool unknown")
	require.Contains(t, err.Error(), "(granted: none)")
}

func TestNormalizeScopes(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, NormalizeScopes([]string{" a", "b", "a", ""}))
	require.Nil(t, NormalizeScopes([]string{" ", ""}))
}
