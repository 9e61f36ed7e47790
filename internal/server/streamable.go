package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/aaronjoyvictor/seam-mcp/internal/audit"
	"github.com/aaronjoyvictor/seam-mcp/internal/httputil"
)

// NewMCPServer builds an MCP SDK server exposing every registry tool through
// caller. Failed calls become isError results carrying the failure message.
func NewMCPServer(
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	principal SessionPrincipal,
	caller ToolCaller,
	version string,
	logger zerolog.Logger,
) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: ServerName, Version: version}, nil)
	auditLogger := audit.NewLogger(logger)

	for _, tool := range registry.List() {
		server.AddTool(&mcpsdk.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, sdkToolHandler(tool, authorizer, principal, caller, auditLogger, logger))
	}
	return server
}

func sdkToolHandler(
	tool ToolSpec,
	authorizer ToolAuthorizer,
	principal SessionPrincipal,
	caller ToolCaller,
	auditLogger *audit.Logger,
	logger zerolog.Logger,
) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		started := time.Now()
		mode := resolvedMode(authorizer)
		requestID := httputil.RequestIDFromContext(ctx)
		auditEvent := audit.ToolCallCompletion{
			RequestID: requestID,
			SessionID: requestID,
			Transport: "streamable-http",
			ToolName:  tool.Name,
			Mode:      mode,
			CallerSub: principal.Subject,
			DeviceID:  callerDeviceID(caller),
			Result:    "error",
		}
		defer func() {
			auditEvent.Duration = time.Since(started)
			auditLogger.Complete(auditEvent)
		}()

		args, err := decodeSDKArguments(req.Params.Arguments)
		if err != nil {
			auditEvent.ErrorDetail = err.Error()
			auditEvent.ResponseCode = http.StatusBadRequest
			return sdkErrorResult(err.Error()), nil
		}
		if err := checkToolCall(authorizer, tool, args, principal); err != nil {
			auditEvent.ErrorDetail = err.Error()
			auditEvent.ResponseCode = toolErrorStatus(err)
			return sdkErrorResult(err.Error()), nil
		}

		logger.Info().Str("transport", "streamable-http").Str("tool", tool.Name).Msg("received tool call")
		text, err := caller.Call(ctx, tool.Name, args)
		if err != nil {
			auditEvent.ErrorKind = toolErrorKind(err)
			auditEvent.ErrorDetail = toolErrorMessage(err)
			auditEvent.ResponseCode = toolErrorStatus(err)
			return sdkErrorResult(toolErrorMessage(err)), nil
		}

		auditEvent.Result = "success"
		auditEvent.ResponseCode = http.StatusOK
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		}, nil
	}
}

func decodeSDKArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

func sdkErrorResult(message string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: message}},
		IsError: true,
	}
}

// streamableHandler serves server over stateless Streamable HTTP. When authn is
// set every request must carry the session bearer token.
func streamableHandler(server *mcpsdk.Server, authn SessionAuthenticator) http.Handler {
	handler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, &mcpsdk.StreamableHTTPOptions{Stateless: true})

	if isNilAuthenticator(authn) {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := authn.AuthenticateHTTP(r); err != nil {
			status, detail := authFailureResponse(err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="seam-mcp"`)
			httputil.RespondProblem(w, r, status, detail)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// sessionPrincipal is the principal of every request that passed authn.
func sessionPrincipal(authn SessionAuthenticator) SessionPrincipal {
	if isNilAuthenticator(authn) {
		return anonymousPrincipal()
	}
	if withPrincipal, ok := authn.(interface{ Principal() SessionPrincipal }); ok {
		return withPrincipal.Principal()
	}
	return SessionPrincipal{}
}
