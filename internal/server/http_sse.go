package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aaronjoyvictor/seam-mcp/internal/audit"
	"github.com/aaronjoyvictor/seam-mcp/internal/httputil"
)

func registerMCPHTTPRoutes(
	r chi.Router,
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	sessionAuth SessionAuthenticator,
	caller ToolCaller,
	version string,
	logger zerolog.Logger,
) {
	r.Route("/mcp/v1", func(r chi.Router) {
		r.Post("/initialize", handleInitializeHTTP(version))
		r.Get("/tools", handleListToolsHTTP(registry))
		r.Post("/tools/call", handleCallToolHTTP(registry, authorizer, sessionAuth, caller, logger))
		r.Post("/tools/call/sse", handleCallToolSSE(registry, authorizer, sessionAuth, caller, logger))
	})
}

func handleInitializeHTTP(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, newInitializeResult(version))
	}
}

func handleListToolsHTTP(registry *ToolRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, newListToolsResult(registry))
	}
}

func handleCallToolHTTP(
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	sessionAuth SessionAuthenticator,
	caller ToolCaller,
	logger zerolog.Logger,
) http.HandlerFunc {
	auditLogger := audit.NewLogger(logger)

	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		mode := resolvedMode(authorizer)
		requestID := httputil.RequestIDFromContext(r.Context())

		params, tool, principal, rejectionDetail, ok := parseCallToolRequest(w, r, registry, authorizer, sessionAuth)
		auditEvent := audit.ToolCallCompletion{
			RequestID: requestID,
			SessionID: sessionIDFromHTTPRequest(r, requestID),
			Transport: "http",
			ToolName:  strings.TrimSpace(params.Name),
			Mode:      mode,
			CallerSub: principal.Subject,
			DeviceID:  callerDeviceID(caller),
			Result:    "error",
		}
		defer func() {
			auditEvent.Duration = time.Since(started)
			auditLogger.Complete(auditEvent)
		}()

		if !ok {
			auditEvent.ErrorDetail = rejectionDetail
			return
		}

		auditEvent.ToolName = tool.Name
		logger.Info().Str("transport", "http").Str("tool", tool.Name).Msg("received tool call")

		text, err := caller.Call(r.Context(), tool.Name, params.Arguments)
		if err != nil {
			auditEvent.ErrorKind = toolErrorKind(err)
			auditEvent.ErrorDetail = toolErrorMessage(err)
			auditEvent.ResponseCode = toolErrorStatus(err)
			httputil.RespondProblem(w, r, toolErrorStatus(err), toolErrorMessage(err))
			return
		}
		auditEvent.Result = "success"
		auditEvent.ResponseCode = http.StatusOK
		httputil.RespondJSON(w, http.StatusOK, toolCallResultFromExecution(tool.Name, mode, text))
	}
}

func handleCallToolSSE(
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	sessionAuth SessionAuthenticator,
	caller ToolCaller,
	logger zerolog.Logger,
) http.HandlerFunc {
	auditLogger := audit.NewLogger(logger)

	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		mode := resolvedMode(authorizer)
		requestID := httputil.RequestIDFromContext(r.Context())

		params, tool, principal, rejectionDetail, ok := parseCallToolRequest(w, r, registry, authorizer, sessionAuth)
		auditEvent := audit.ToolCallCompletion{
			RequestID: requestID,
			SessionID: sessionIDFromHTTPRequest(r, requestID),
			Transport: "http-sse",
			ToolName:  strings.TrimSpace(params.Name),
			Mode:      mode,
			CallerSub: principal.Subject,
			DeviceID:  callerDeviceID(caller),
			Result:    "error",
		}
		defer func() {
			auditEvent.Duration = time.Since(started)
			auditLogger.Complete(auditEvent)
		}()

		if !ok {
			auditEvent.ErrorDetail = rejectionDetail
			return
		}
		auditEvent.ToolName = tool.Name

		controller := http.NewResponseController(w)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		logger.Info().Str("transport", "http-sse").Str("tool", tool.Name).Msg("streaming tool call")

		if err := writeSSEEvent(r.Context(), w, "accepted", map[string]any{
			"tool":      tool.Name,
			"status":    "accepted",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}); err != nil {
			auditEvent.ErrorDetail = err.Error()
			auditEvent.ResponseCode = http.StatusInternalServerError
			return
		}
		_ = controller.Flush()

		var result callToolResult
		text, err := caller.Call(r.Context(), tool.Name, params.Arguments)
		if err != nil {
			auditEvent.ErrorKind = toolErrorKind(err)
			auditEvent.ErrorDetail = toolErrorMessage(err)
			auditEvent.ResponseCode = toolErrorStatus(err)
			result = toolCallResultFromError(tool.Name, mode, err)
		} else {
			auditEvent.Result = "success"
			auditEvent.ResponseCode = http.StatusOK
			result = toolCallResultFromExecution(tool.Name, mode, text)
		}

		if writeErr := writeSSEEvent(r.Context(), w, "result", result); writeErr != nil {
			auditEvent.Result = "error"
			auditEvent.ErrorDetail = writeErr.Error()
			auditEvent.ResponseCode = http.StatusInternalServerError
			return
		}
		_ = controller.Flush()

		_ = writeSSEEvent(r.Context(), w, "done", map[string]any{"status": "done"})
		_ = controller.Flush()
	}
}

func parseCallToolRequest(
	w http.ResponseWriter,
	r *http.Request,
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	sessionAuth SessionAuthenticator,
) (callToolParams, ToolSpec, SessionPrincipal, string, bool) {
	principal, err := authenticateHTTPToolCall(r, sessionAuth)
	if err != nil {
		status, detail := authFailureResponse(err)
		httputil.RespondProblem(w, r, status, detail)
		return callToolParams{}, ToolSpec{}, SessionPrincipal{}, detail, false
	}

	var params callToolParams
	if err := decodeJSONStrict(r, &params); err != nil {
		detail := fmt.Sprintf("invalid request body: %v", err)
		httputil.RespondProblem(w, r, http.StatusBadRequest, detail)
		return callToolParams{}, ToolSpec{}, principal, detail, false
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		httputil.RespondProblem(w, r, http.StatusBadRequest, "tool name is required")
		return params, ToolSpec{}, principal, "tool name is required", false
	}

	tool, ok := registry.Lookup(name)
	if !ok {
		detail := fmt.Sprintf("unknown tool: %s", name)
		httputil.RespondProblem(w, r, http.StatusNotFound, detail)
		return params, ToolSpec{}, principal, detail, false
	}
	if err := checkToolCall(authorizer, tool, params.Arguments, principal); err != nil {
		httputil.RespondProblem(w, r, toolErrorStatus(err), err.Error())
		return params, tool, principal, err.Error(), false
	}

	return params, tool, principal, "", true
}

func writeSSEEvent(ctx context.Context, w http.ResponseWriter, event string, payload any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", strings.TrimSpace(event), data); err != nil {
		return err
	}
	return nil
}

func decodeJSONStrict(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("request must contain exactly one JSON object")
	}
	return nil
}

func sessionIDFromHTTPRequest(r *http.Request, fallback string) string {
	for _, header := range []string{"Mcp-Session-Id", "X-Session-ID"} {
		if sessionID := strings.TrimSpace(r.Header.Get(header)); sessionID != "" {
			return sessionID
		}
	}
	return strings.TrimSpace(fallback)
}
