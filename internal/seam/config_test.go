package seam

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveConfig_Complete(t *testing.T) {
	var buf bytes.Buffer
	cfg := ResolveConfig(envMap(map[string]string{
		EnvAPIKey:   " seam_key ",
		EnvDeviceID: "device-1",
	}), zerolog.New(&buf))

	assert.True(t, cfg.Configured())
	assert.Equal(t, "seam_key", cfg.APIKey)
	assert.Equal(t, "device-1", cfg.DeviceID)
	assert.Empty(t, cfg.Missing())
	assert.Empty(t, buf.String())
}

func TestResolveConfig_MissingValuesWarn(t *testing.T) {
	var buf bytes.Buffer
	cfg := ResolveConfig(envMap(map[string]string{
		EnvAPIKey:   "seam_key",
		EnvDeviceID: "   ",
	}), zerolog.New(&buf))

	require.False(t, cfg.Configured())
	assert.Equal(t, []string{EnvDeviceID}, cfg.Missing())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), EnvDeviceID)
	assert.NotContains(t, buf.String(), "seam_key")
}

func TestActionMetadata(t *testing.T) {
	assert.Equal(t, "/locks/lock_door", ActionLock.Path())
	assert.Equal(t, "/locks/unlock_door", ActionUnlock.Path())
	assert.Equal(t, "Door locked successfully.", ActionLock.SuccessMessage())
	assert.Equal(t, "Door unlocked successfully.", ActionUnlock.SuccessMessage())
	assert.Equal(t, "Lock", ActionLock.Title())
	assert.Equal(t, "unlock", ActionUnlock.String())
}
