package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsAndServes(t *testing.T) {
	r := New()
	r.ToolCall("lock_door", "success")
	r.ToolCall("lock_door", "success")
	r.ToolCall("unlock_door", "error")
	r.Downstream("lock", "success", 120*time.Millisecond)

	require.InDelta(t, 2, testutil.ToFloat64(r.toolCalls.WithLabelValues("lock_door", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.toolCalls.WithLabelValues("unlock_door", "error")), 0)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `seam_mcp_tool_calls_total{result="success",tool="lock_door"} 2`)
	require.Contains(t, string(body), `seam_mcp_downstream_request_duration_seconds_count{action="lock",outcome="success"} 1`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ToolCall("lock_door", "success")
	r.Downstream("lock", "success", time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
