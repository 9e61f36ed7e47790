// Package auth resolves the session token that callers must present to the MCP server.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvSessionToken holds the MCP session token.
const EnvSessionToken = "SEAM_MCP_TOKEN"

// TokenSource identifies where a token was resolved from.
type TokenSource string

const (
	// TokenSourceNone means no session token is configured.
	TokenSourceNone TokenSource = ""
	// TokenSourceEnv is SEAM_MCP_TOKEN.
	TokenSourceEnv TokenSource = "seam_mcp_token"
	// TokenSourceCLIConfig is auth.token from the CLI config file.
	TokenSourceCLIConfig TokenSource = "cli_config"
)

// TokenResolution contains the resolved token and its source.
type TokenResolution struct {
	Token  string
	Source TokenSource
}

// TokenSourceOptions controls token resolution.
type TokenSourceOptions struct {
	AllowCLIConfigToken bool
	CLIConfigPath       string
}

type cliConfigFile struct {
	Auth struct {
		Token string `yaml:"token"`
	} `yaml:"auth"`
}

// ResolveToken resolves the session token from SEAM_MCP_TOKEN, then from the
// CLI config file when AllowCLIConfigToken is set. An empty resolution is not
// an error: the HTTP surface then runs without session authentication.
func ResolveToken(opts TokenSourceOptions) (TokenResolution, error) {
	if token := strings.TrimSpace(os.Getenv(EnvSessionToken)); token != "" {
		return TokenResolution{Token: token, Source: TokenSourceEnv}, nil
	}
	if !opts.AllowCLIConfigToken {
		return TokenResolution{}, nil
	}

	path := strings.TrimSpace(opts.CLIConfigPath)
	if path == "" {
		path = "~/.seam-mcp/config.yaml"
	}
	data, err := os.ReadFile(expandPath(path))
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return TokenResolution{}, nil
	default:
		return TokenResolution{}, fmt.Errorf("reading CLI config token source: %w", err)
	}

	var cfg cliConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TokenResolution{}, fmt.Errorf("decoding CLI config token source: %w", err)
	}
	token := strings.TrimSpace(cfg.Auth.Token)
	if token == "" {
		return TokenResolution{}, nil
	}
	return TokenResolution{Token: token, Source: TokenSourceCLIConfig}, nil
}

func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return filepath.Clean(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
}
