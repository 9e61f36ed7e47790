package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aaronjoyvictor/seam-mcp/internal/seam"
)

// ToolCaller executes one tool call and returns its text result.
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

type statusCoder interface {
	StatusCode() int
}


func toolErrorStatus(err error) int {
	var withStatus statusCoder
	if err != nil && errors.As(err, &withStatus) {
		status := withStatus.StatusCode()
		if status >= 400 && status <= 599 {
			return status
		}
	}
	return http.StatusInternalServerError
}

func toolErrorKind(err error) string {
	return string(seam.KindOf(err))
}

func toolErrorMessage(err error) string {
	if err == nil {
		return "unknown tool execution error"
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "unknown tool execution error"
	}
	return message
}

func toolCallResultFromExecution(name, mode, text string) callToolResult {
	return callToolResult{
		Content: []contentBlock{
			{
				Type: "text",
				Text: text,
			},
		},
		IsError: false,
		StructuredContent: map[string]any{
			"tool":    strings.TrimSpace(name),
			"mode":    strings.TrimSpace(mode),
			"status":  "ok",
			"message": text,
		},
	}
}

func toolCallResultFromError(name, mode string, err error) callToolResult {
	return callToolResult{
		Content: []contentBlock{
			{
				Type: "text",
				Text: toolErrorMessage(err),
			},
		},
		IsError: true,
		StructuredContent: map[string]any{
			"tool":   strings.TrimSpace(name),
			"mode":   strings.TrimSpace(mode),
			"status": "error",
			"error": map[string]any{
				"status":  toolErrorStatus(err),
				"message": toolErrorMessage(err),
			},
		},
	}
}
