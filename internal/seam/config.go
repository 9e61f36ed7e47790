// Package seam implements lock and unlock actions against the Seam lock-control API.
package seam

import (
	"strings"

	"github.com/rs/zerolog"
)

const (
	// EnvAPIKey holds the Seam API key.
	EnvAPIKey = "SEAM_API_KEY"
	// EnvDeviceID holds the target lock device identifier.
	EnvDeviceID = "DEVICE_ID"
)

// Config is the resolved, immutable credential set for one lock device.
type Config struct {
	APIKey   string
	DeviceID string
}

// ResolveConfig reads the API key and device ID once. It never fails; missing
// values are logged as a warning and surface later as configuration errors.
func ResolveConfig(getenv func(string) string, logger zerolog.Logger) Config {
	cfg := Config{
		APIKey:   strings.TrimSpace(getenv(EnvAPIKey)),
		DeviceID: strings.TrimSpace(getenv(EnvDeviceID)),
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn().
			Strs("missing", missing).
			Msg("seam credentials are not fully configured; lock tools will fail until they are set")
	}
	return cfg
}

// Configured reports whether both the API key and the device ID are present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.DeviceID != ""
}

// Missing returns the environment variable names of absent values.
func (c Config) Missing() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.DeviceID == "" {
		missing = append(missing, EnvDeviceID)
	}
	return missing
}
