// Package config loads seam-mcp runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// TransportStdio runs MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP runs MCP over HTTP (streamable endpoint plus REST/SSE routes).
	TransportHTTP = "http"

	// ModeReadOnly denies write capability tools.
	ModeReadOnly = "read-only"
	// ModeReadWrite allows lock and unlock tools.
	ModeReadWrite = "read-write"

	defaultPort          = 8000
	defaultHost          = "0.0.0.0"
	defaultSeamAPIURL    = "https://connect.getseam.com"
	defaultNATSSubject   = "seam.locks.actions"
	defaultCLIConfigPath = "~/.seam-mcp/config.yaml"
)

// Config holds server runtime configuration. The Seam credentials themselves are
// resolved separately by seam.ResolveConfig.
type Config struct {
	ListenAddr string
	LogLevel   string
	Transport  string

	Mode          string
	ConfirmUnlock bool

	SeamAPIURL string

	AllowCLIConfigToken bool
	CLIConfigPath       string

	NATSURL     string
	NATSSubject string

	MetricsEnabled bool
	TracesEnabled  bool
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding variables already present in the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Load returns configuration parsed from environment variables.
func Load() (Config, error) {
	port, err := envPort("PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:          envOrDefault("SEAM_MCP_LISTEN_ADDR", fmt.Sprintf("%s:%d", defaultHost, port)),
		LogLevel:            strings.ToLower(strings.TrimSpace(envOrDefault("SEAM_MCP_LOG_LEVEL", "info"))),
		Transport:           strings.ToLower(strings.TrimSpace(envOrDefault("SEAM_MCP_TRANSPORT", TransportHTTP))),
		Mode:                strings.ToLower(strings.TrimSpace(envOrDefault("SEAM_MCP_MODE", ModeReadWrite))),
		ConfirmUnlock:       envBool("SEAM_MCP_CONFIRM_UNLOCK", false),
		SeamAPIURL:          strings.TrimSpace(envOrDefault("SEAM_API_URL", defaultSeamAPIURL)),
		AllowCLIConfigToken: envBool("SEAM_MCP_ALLOW_CLI_CONFIG_TOKEN", false),
		CLIConfigPath:       strings.TrimSpace(envOrDefault("SEAM_MCP_CLI_CONFIG_PATH", defaultCLIConfigPath)),
		NATSURL:             strings.TrimSpace(os.Getenv("SEAM_MCP_NATS_URL")),
		NATSSubject:         strings.TrimSpace(envOrDefault("SEAM_MCP_NATS_SUBJECT", defaultNATSSubject)),
		MetricsEnabled:      envBool("SEAM_MCP_METRICS_ENABLED", true),
		TracesEnabled:       envBool("SEAM_MCP_TRACES_ENABLED", false),
	}

	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return Config{}, fmt.Errorf("invalid SEAM_MCP_TRANSPORT %q (allowed: %s|%s)", cfg.Transport, TransportStdio, TransportHTTP)
	}

	switch cfg.Mode {
	case ModeReadOnly, ModeReadWrite:
	default:
		return Config{}, fmt.Errorf("invalid SEAM_MCP_MODE %q (allowed: %s|%s)", cfg.Mode, ModeReadOnly, ModeReadWrite)
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = fmt.Sprintf("%s:%d", defaultHost, port)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SeamAPIURL == "" {
		cfg.SeamAPIURL = defaultSeamAPIURL
	}
	if cfg.NATSSubject == "" {
		cfg.NATSSubject = defaultNATSSubject
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		switch strings.ToLower(value) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		default:
			return defaultVal
		}
	}
	return parsed
}

func envPort(key string, defaultVal int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %q: must be an integer between 1 and 65535", key, value)
	}
	return port, nil
}
