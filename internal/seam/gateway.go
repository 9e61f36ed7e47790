package seam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the Seam Connect API root.
	DefaultBaseURL = "https://connect.getseam.com"

	maxErrorBodyBytes = 1 << 20
)

// GatewayOptions tunes the outbound side of a Gateway. The zero value talks to
// DefaultBaseURL with an instrumented default transport and no client timeout.
type GatewayOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Gateway performs lock actions for one configured device. It holds only
// read-only state and is safe for concurrent use.
type Gateway struct {
	cfg     Config
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

type lockRequest struct {
	DeviceID string `json:"device_id"`
}

// NewGateway creates a gateway bound to cfg.
func NewGateway(cfg Config, opts GatewayOptions) *Gateway {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		// Cancellation comes from the caller's context; no timeout is imposed here.
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Gateway{
		cfg:     cfg,
		baseURL: baseURL,
		client:  client,
		logger:  opts.Logger.With().Str("component", "gateway").Logger(),
	}
}

// Configured reports whether the gateway has both credentials.
func (g *Gateway) Configured() bool {
	return g.cfg.Configured()
}

// DeviceID returns the target device identifier.
func (g *Gateway) DeviceID() string {
	return g.cfg.DeviceID
}

// LockDoor locks the configured device.
func (g *Gateway) LockDoor(ctx context.Context) (string, error) {
	return g.Perform(ctx, ActionLock)
}

// UnlockDoor unlocks the configured device.
func (g *Gateway) UnlockDoor(ctx context.Context) (string, error) {
	return g.Perform(ctx, ActionUnlock)
}

// Perform executes one action and returns the fixed success message, or one of
// *ConfigurationError, *RemoteServiceError or *TransportError.
func (g *Gateway) Perform(ctx context.Context, action Action) (string, error) {
	if !action.valid() {
		return "", fmt.Errorf("unsupported lock action %s", action)
	}
	if !g.cfg.Configured() {
		return "", &ConfigurationError{Action: action, Missing: g.cfg.Missing()}
	}

	req, err := g.newRequest(ctx, action)
	if err != nil {
		return "", err
	}

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Str("action", action.String()).Msg("downstream request failed")
		return "", &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	logEvent := g.logger.Debug().
		Str("action", action.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started))

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		logEvent.Msg("downstream accepted action")
		return action.SuccessMessage(), nil
	}
	logEvent.Msg("downstream rejected action")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return "", &TransportError{Action: action, Err: fmt.Errorf("reading error response: %w", err)}
	}
	return "", &RemoteServiceError{
		Action:     action,
		StatusCode: resp.StatusCode,
		Message:    extractErrorMessage(body),
	}
}

func (g *Gateway) newRequest(ctx context.Context, action Action) (*http.Request, error) {
	payload, err := json.Marshal(lockRequest{DeviceID: g.cfg.DeviceID})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+action.Path(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// extractErrorMessage prefers error.message from a JSON body and falls back to
// the raw body text when the body is not JSON or the field is absent.
func extractErrorMessage(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if !gjson.ValidBytes(body) {
		return raw
	}
	message := gjson.GetBytes(body, "error.message")
	if !message.Exists() {
		return raw
	}
	return message.String()
}
