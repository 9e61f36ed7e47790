package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronjoyvictor/seam-mcp/internal/events"
	"github.com/aaronjoyvictor/seam-mcp/internal/metrics"
	"github.com/aaronjoyvictor/seam-mcp/internal/seam"
)

type mockGateway struct {
	performFn func(context.Context, seam.Action) (string, error)
	deviceID  string

	mu      sync.Mutex
	actions []seam.Action
}

func (m *mockGateway) Perform(ctx context.Context, action seam.Action) (string, error) {
	m.mu.Lock()
	m.actions = append(m.actions, action)
	m.mu.Unlock()
	if m.performFn != nil {
		return m.performFn(ctx, action)
	}
	return action.SuccessMessage(), nil
}

func (m *mockGateway) DeviceID() string {
	return m.deviceID
}

func (m *mockGateway) calls() []seam.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]seam.Action(nil), m.actions...)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.ActionEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event events.ActionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published() []events.ActionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.ActionEvent(nil), m.events...)
}

func TestCall_DispatchesToolsToActions(t *testing.T) {
	gateway := &mockGateway{deviceID: "device-123"}
	runner := NewRunner(gateway, Options{Logger: zerolog.Nop()})

	message, err := runner.Call(context.Background(), ToolLockDoor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Door locked successfully.", message)

	message, err = runner.Call(context.Background(), " unlock_door ", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Door unlocked successfully.", message)

	assert.Equal(t, []seam.Action{seam.ActionLock, seam.ActionUnlock}, gateway.calls())
}

func TestCall_UnknownTool(t *testing.T) {
	gateway := &mockGateway{}
	runner := NewRunner(gateway, Options{Logger: zerolog.Nop()})

	_, err := runner.Call(context.Background(), "open_garage", nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, http.StatusNotFound, toolErr.StatusCode())
	assert.Equal(t, "unknown tool: open_garage", toolErr.Error())
	assert.Empty(t, gateway.calls())
}

func TestCall_ArgumentValidation(t *testing.T) {
	gateway := &mockGateway{}
	runner := NewRunner(gateway, Options{Logger: zerolog.Nop()})

	_, err := runner.Call(context.Background(), ToolLockDoor, map[string]any{"device_id": "other"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, http.StatusBadRequest, toolErr.StatusCode())
	assert.Contains(t, toolErr.Error(), "invalid tool arguments")

	_, err = runner.Call(context.Background(), ToolUnlockDoor, map[string]any{"confirm": "yes"})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, http.StatusBadRequest, toolErr.StatusCode())

	_, err = runner.Call(context.Background(), ToolUnlockDoor, map[string]any{"confirm": true})
	require.NoError(t, err)
	assert.Equal(t, []seam.Action{seam.ActionUnlock}, gateway.calls())
}

func TestCall_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   seam.ErrorKind
		wantText   string
	}{
		{
			name:       "configuration",
			err:        &seam.ConfigurationError{Action: seam.ActionLock, Missing: []string{seam.EnvAPIKey}},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   seam.KindConfiguration,
			wantText:   "SEAM_API_KEY and DEVICE_ID must be configured in environment variables.",
		},
		{
			name:       "remote",
			err:        &seam.RemoteServiceError{Action: seam.ActionLock, StatusCode: 403, Message: "invalid token"},
			wantStatus: http.StatusBadGateway,
			wantKind:   seam.KindRemoteService,
			wantText:   "Lock failed (403): invalid token",
		},
		{
			name:       "transport",
			err:        &seam.TransportError{Action: seam.ActionLock, Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantKind:   seam.KindTransport,
			wantText:   "Lock failed: connection refused",
		},
		{
			name:       "deadline",
			err:        &seam.TransportError{Action: seam.ActionLock, Err: fmt.Errorf("post: %w", context.DeadlineExceeded)},
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   seam.KindTransport,
		},
		{
			name:       "canceled",
			err:        &seam.TransportError{Action: seam.ActionLock, Err: fmt.Errorf("post: %w", context.Canceled)},
			wantStatus: http.StatusRequestTimeout,
			wantKind:   seam.KindTransport,
		},
		{
			name:       "foreign",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantText:   "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &mockGateway{performFn: func(context.Context, seam.Action) (string, error) {
				return "", tt.err
			}}
			runner := NewRunner(gateway, Options{Logger: zerolog.Nop()})

			_, err := runner.Call(context.Background(), ToolLockDoor, nil)
			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, tt.wantStatus, toolErr.StatusCode())
			assert.Equal(t, tt.wantKind, toolErr.Kind())
			assert.ErrorIs(t, err, tt.err)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, toolErr.Error())
			}
		})
	}
}

func TestCall_PublishesActionEvents(t *testing.T) {
	gateway := &mockGateway{
		deviceID: "device-123",
		performFn: func(_ context.Context, action seam.Action) (string, error) {
			if action == seam.ActionUnlock {
				return "", &seam.RemoteServiceError{Action: action, StatusCode: 500, Message: "internal error"}
			}
			return action.SuccessMessage(), nil
		},
	}
	publisher := &mockPublisher{}
	runner := NewRunner(gateway, Options{Events: publisher, Logger: zerolog.Nop()})

	_, err := runner.Call(context.Background(), ToolLockDoor, nil)
	require.NoError(t, err)
	_, err = runner.Call(context.Background(), ToolUnlockDoor, nil)
	require.Error(t, err)

	published := publisher.published()
	require.Len(t, published, 2)

	assert.Equal(t, "lock", published[0].Action)
	assert.Equal(t, "success", published[0].Outcome)
	assert.Equal(t, "device-123", published[0].DeviceID)
	assert.Equal(t, "Door locked successfully.", published[0].Message)

	assert.Equal(t, "unlock", published[1].Action)
	assert.Equal(t, "error", published[1].Outcome)
	assert.Equal(t, "remote", published[1].ErrorKind)
	assert.Equal(t, 500, published[1].StatusCode)
	assert.Equal(t, "Unlock failed (500): internal error", published[1].Message)
}

func TestCall_PublishFailureDoesNotFailTool(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("nats: connection closed")}
	runner := NewRunner(&mockGateway{}, Options{Events: publisher, Logger: zerolog.Nop()})

	message, err := runner.Call(context.Background(), ToolLockDoor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Door locked successfully.", message)
	assert.Len(t, publisher.published(), 1)
}

func TestCall_RecordsMetrics(t *testing.T) {
	recorder := metrics.New()
	gateway := &mockGateway{performFn: func(_ context.Context, action seam.Action) (string, error) {
		if action == seam.ActionUnlock {
			return "", &seam.ConfigurationError{Action: action}
		}
		return action.SuccessMessage(), nil
	}}
	runner := NewRunner(gateway, Options{Metrics: recorder, Logger: zerolog.Nop()})

	_, _ = runner.Call(context.Background(), ToolLockDoor, nil)
	_, _ = runner.Call(context.Background(), ToolUnlockDoor, nil)

	body := scrape(t, recorder)
	assert.Contains(t, body, `seam_mcp_tool_calls_total{result="success",tool="lock_door"} 1`)
	assert.Contains(t, body, `seam_mcp_tool_calls_total{result="error",tool="unlock_door"} 1`)
	assert.Contains(t, body, `seam_mcp_downstream_request_duration_seconds_count{action="lock",outcome="success"} 1`)
	assert.NotContains(t, body, `action="unlock"`)
}

func TestCall_EndToEndAgainstGateway(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/locks/lock_door" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"message":"invalid token"}}`)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(downstream.Close)

	gateway := seam.NewGateway(seam.Config{APIKey: "seam_test", DeviceID: "device-123"}, seam.GatewayOptions{
		BaseURL:    downstream.URL,
		HTTPClient: downstream.Client(),
		Logger:     zerolog.Nop(),
	})
	runner := NewRunner(gateway, Options{Logger: zerolog.Nop()})

	_, err := runner.Call(context.Background(), ToolLockDoor, nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, http.StatusBadGateway, toolErr.StatusCode())
	assert.Equal(t, "Lock failed (403): invalid token", toolErr.Error())

	message, err := runner.Call(context.Background(), ToolUnlockDoor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Door unlocked successfully.", message)
}

func TestActionForTool(t *testing.T) {
	action, ok := ActionForTool("lock_door")
	require.True(t, ok)
	assert.Equal(t, seam.ActionLock, action)

	action, ok = ActionForTool("unlock_door")
	require.True(t, ok)
	assert.Equal(t, seam.ActionUnlock, action)

	_, ok = ActionForTool("lock")
	assert.False(t, ok)
}

func scrape(t *testing.T, recorder *metrics.Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
