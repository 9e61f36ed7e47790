package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aaronjoyvictor/seam-mcp/internal/httputil"
	"github.com/aaronjoyvictor/seam-mcp/internal/metrics"
)

const maxRequestBodyBytes = 1 << 20

// HTTPOptions carries build metadata and optional collaborators for the HTTP
// transport.
type HTTPOptions struct {
	Version   string
	Commit    string
	BuildDate string
	Contract  []byte

	// Ready backs /readiness; nil always reports ready.
	Ready func() error
	// Metrics enables /metrics when non-nil.
	Metrics *metrics.Recorder
	// Authn guards tool calls; nil leaves them open.
	Authn SessionAuthenticator
}

// HTTPServer wraps MCP HTTP routing state.
type HTTPServer struct {
	opts     HTTPOptions
	registry *ToolRegistry
	policy   ToolAuthorizer
	caller   ToolCaller
	logger   zerolog.Logger
}

// NewHTTPServer creates an HTTP transport server with health and MCP routes.
func NewHTTPServer(
	opts HTTPOptions,
	registry *ToolRegistry,
	policy ToolAuthorizer,
	caller ToolCaller,
	logger zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		opts:     opts,
		registry: registry,
		policy:   policy,
		caller:   caller,
		logger:   logger.With().Str("component", "server").Logger(),
	}
}

// Router builds the MCP HTTP router.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(httputil.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestLogger(s.logger))
	r.Use(httputil.Recoverer(s.logger))
	r.Use(httputil.SecureHeaders)
	r.Use(httputil.BodyLimit(maxRequestBodyBytes))

	registerHealthRoutes(r, s.opts.Version, s.opts.Commit, s.opts.BuildDate, s.opts.Ready, s.opts.Metrics)

	mcpServer := NewMCPServer(s.registry, s.policy, sessionPrincipal(s.opts.Authn), s.caller, s.opts.Version, s.logger)
	r.Handle("/mcp", streamableHandler(mcpServer, s.opts.Authn))

	r.Group(func(r chi.Router) {
		r.Use(httputil.APIVersion("mcp/v1"))
		r.Use(httputil.CacheControl)
		registerMCPHTTPRoutes(r, s.registry, s.policy, s.opts.Authn, s.caller, s.opts.Version, s.logger)
	})

	r.Get("/api/tools.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.opts.Contract)
	})

	return r
}

// Handler returns the router wrapped with OpenTelemetry server instrumentation.
func (s *HTTPServer) Handler() http.Handler {
	return otelhttp.NewHandler(s.Router(), "seam-mcp",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
