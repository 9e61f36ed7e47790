package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aaronjoyvictor/seam-mcp/internal/audit"
)

const (
	rpcCodeInvalidRequest = -32600
	rpcCodeMethodNotFound = -32601
	rpcCodeInvalidParams  = -32602
	rpcCodeInternalError  = -32603

	maxMessageBytes = 1 << 20
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
	Capabilities struct {
		Tools struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools"`
	} `json:"capabilities"`
}

type listToolsResult struct {
	Tools []toolDescriptor `json:"tools"`
}

type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type callToolResult struct {
	Content           []contentBlock `json:"content"`
	IsError           bool           `json:"isError"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RunStdio handles MCP requests over stdin/stdout using JSON-RPC line-delimited
// messages. Notifications (requests without an id) get no reply.
func RunStdio(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	caller ToolCaller,
	version string,
	logger zerolog.Logger,
) error {
	auditLogger := audit.NewLogger(logger)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if writeErr := writeRPC(writer, rpcResponse{
				JSONRPC: "2.0",
				Error: &rpcError{
					Code:    rpcCodeInvalidRequest,
					Message: fmt.Sprintf("invalid json-rpc payload: %v", err),
				},
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		resp, reply := handleRPCRequest(ctx, req, registry, authorizer, caller, auditLogger, version, logger)
		if !reply {
			continue
		}
		if err := writeRPC(writer, resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdio request: %w", err)
	}
	return nil
}

func writeRPC(w *bufio.Writer, resp rpcResponse) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding rpc response: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("writing rpc response: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing rpc newline: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing rpc response: %w", err)
	}
	return nil
}

func handleRPCRequest(
	ctx context.Context,
	req rpcRequest,
	registry *ToolRegistry,
	authorizer ToolAuthorizer,
	caller ToolCaller,
	auditLogger *audit.Logger,
	version string,
	logger zerolog.Logger,
) (rpcResponse, bool) {
	response := rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	method := strings.TrimSpace(req.Method)
	if req.ID == nil {
		if !strings.HasPrefix(method, "notifications/") {
			logger.Debug().Str("method", method).Msg("ignoring notification")
		}
		return response, false
	}

	if strings.TrimSpace(req.JSONRPC) != "2.0" {
		response.Error = &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: "jsonrpc must be 2.0",
		}
		return response, true
	}

	switch method {
	case "initialize":
		response.Result = newInitializeResult(version)
		return response, true

	case "ping":
		response.Result = struct{}{}
		return response, true

	case "tools/list":
		response.Result = newListToolsResult(registry)
		return response, true

	case "tools/call":
		var params callToolParams
		if len(req.Params) == 0 {
			response.Error = &rpcError{
				Code:    rpcCodeInvalidParams,
				Message: "missing params",
			}
			return response, true
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			response.Error = &rpcError{
				Code:    rpcCodeInvalidParams,
				Message: fmt.Sprintf("invalid tools/call params: %v", err),
			}
			return response, true
		}
		name := strings.TrimSpace(params.Name)
		tool, ok := registry.Lookup(name)
		if !ok {
			response.Error = &rpcError{
				Code:    rpcCodeInvalidParams,
				Message: fmt.Sprintf("unknown tool: %s", name),
			}
			return response, true
		}

		started := time.Now()
		auditEvent := audit.ToolCallCompletion{
			RequestID: fmt.Sprint(req.ID),
			Transport: "stdio",
			ToolName:  tool.Name,
			Mode:      resolvedMode(authorizer),
			CallerSub: "stdio",
			DeviceID:  callerDeviceID(caller),
			Result:    "error",
		}
		defer func() {
			auditEvent.Duration = time.Since(started)
			auditLogger.Complete(auditEvent)
		}()

		if err := checkToolCall(authorizer, tool, params.Arguments, anonymousPrincipal()); err != nil {
			auditEvent.ErrorDetail = err.Error()
			auditEvent.ResponseCode = toolErrorStatus(err)
			response.Error = &rpcError{
				Code:    rpcCodeInvalidParams,
				Message: err.Error(),
			}
			return response, true
		}
		logger.Info().Str("transport", "stdio").Str("tool", tool.Name).Msg("received tool call")
		if caller == nil {
			auditEvent.ErrorDetail = "no tool caller configured"
			auditEvent.ResponseCode = http.StatusInternalServerError
			response.Error = &rpcError{
				Code:    rpcCodeInternalError,
				Message: "no tool caller configured",
			}
			return response, true
		}

		text, err := caller.Call(ctx, tool.Name, params.Arguments)
		if err != nil {
			auditEvent.ErrorKind = toolErrorKind(err)
			auditEvent.ErrorDetail = toolErrorMessage(err)
			auditEvent.ResponseCode = toolErrorStatus(err)
			response.Result = toolCallResultFromError(tool.Name, auditEvent.Mode, err)
			return response, true
		}
		auditEvent.Result = "success"
		auditEvent.ResponseCode = http.StatusOK
		response.Result = toolCallResultFromExecution(tool.Name, auditEvent.Mode, text)
		return response, true

	default:
		response.Error = &rpcError{
			Code:    rpcCodeMethodNotFound,
			Message: fmt.Sprintf("unknown method: %s", method),
		}
		return response, true
	}
}

func newInitializeResult(version string) initializeResult {
	result := initializeResult{ProtocolVersion: defaultProtocolVersion}
	result.ServerInfo.Name = ServerName
	result.ServerInfo.Version = strings.TrimSpace(version)
	result.Capabilities.Tools.ListChanged = false
	return result
}

func newListToolsResult(registry *ToolRegistry) listToolsResult {
	tools := registry.List()
	items := make([]toolDescriptor, 0, len(tools))
	for _, tool := range tools {
		items = append(items, toolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return listToolsResult{Tools: items}
}

// callerDeviceID reports the target device when the caller exposes it.
func callerDeviceID(caller ToolCaller) string {
	if withDevice, ok := caller.(interface{ DeviceID() string }); ok {
		return withDevice.DeviceID()
	}
	return ""
}
