package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaronjoyvictor/seam-mcp/internal/httputil"
	"github.com/aaronjoyvictor/seam-mcp/internal/metrics"
)

func registerHealthRoutes(r chi.Router, version, commit, buildDate string, ready func() error, recorder *metrics.Recorder) {
	r.Method(http.MethodGet, "/health", httputil.HealthHandler())
	r.Method(http.MethodGet, "/readiness", httputil.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/version", httputil.VersionHandler(version, commit, buildDate))
	if recorder != nil {
		r.Method(http.MethodGet, "/metrics", recorder.Handler())
	}
}
