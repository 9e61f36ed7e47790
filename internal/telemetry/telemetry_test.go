package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "seam-mcp"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceNameWhenEnabled(t *testing.T) {
	_, err := Init(context.Background(), Config{TracesEnabled: true})
	require.ErrorContains(t, err, "service name is required")
}

func TestInit_EnabledReturnsShutdown(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:1")

	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "seam-mcp",
		ServiceVersion: "test",
		TracesEnabled:  true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
