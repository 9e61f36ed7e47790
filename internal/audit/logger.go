// Package audit provides structured audit logging for lock tool calls.
package audit

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`)
	keyValuePattern    = regexp.MustCompile(`(?i)\b(token|secret|password|authorization|api_key|apikey)\s*[:=]\s*([^\s,;]+)`)
	seamKeyPattern     = regexp.MustCompile(`\bseam_[A-Za-z0-9_]{8,}`)
)

// ToolCallCompletion captures one finalized tool-call outcome.
type ToolCallCompletion struct {
	RequestID    string
	SessionID    string
	Transport    string
	ToolName     string
	Mode         string
	CallerSub    string
	DeviceID     string
	Result       string
	ErrorKind    string
	ErrorDetail  string
	Duration     time.Duration
	ResponseCode int
}

// Logger emits structured audit entries.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Complete writes a single completion log entry for one tool call.
func (l *Logger) Complete(event ToolCallCompletion) {
	if l == nil {
		return
	}

	result := strings.TrimSpace(event.Result)
	if result == "" {
		result = "error"
	}
	tool := strings.TrimSpace(event.ToolName)
	if tool == "" {
		tool = "unknown"
	}
	mode := strings.TrimSpace(event.Mode)
	if mode == "" {
		mode = "read-write"
	}
	duration := event.Duration
	if duration < 0 {
		duration = 0
	}

	entry := l.logger.Info()
	if result != "success" {
		entry = l.logger.Warn()
	}
	entry = entry.
		Str("event", "mcp.tool_call.completed").
		Str("request_id", strings.TrimSpace(event.RequestID)).
		Str("session_id", strings.TrimSpace(event.SessionID)).
		Str("transport", strings.TrimSpace(event.Transport)).
		Str("tool", tool).
		Str("mode", mode).
		Str("caller_subject", strings.TrimSpace(event.CallerSub)).
		Str("device_id", strings.TrimSpace(event.DeviceID)).
		Str("result", result).
		Int64("duration_ms", duration.Milliseconds())

	if event.ResponseCode > 0 {
		entry = entry.Int("response_code", event.ResponseCode)
	}
	if kind := strings.TrimSpace(event.ErrorKind); kind != "" {
		entry = entry.Str("error_kind", kind)
	}
	if redactedError := RedactSensitiveText(event.ErrorDetail); redactedError != "" {
		entry = entry.Str("error_detail", redactedError)
	}

	entry.Msg("tool call completed")
}

// RedactSensitiveText removes obvious secrets from free-text error details.
func RedactSensitiveText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	redacted := bearerTokenPattern.ReplaceAllString(trimmed, "Bearer [REDACTED]")
	redacted = seamKeyPattern.ReplaceAllString(redacted, "[REDACTED]")
	redacted = keyValuePattern.ReplaceAllStringFunc(redacted, func(match string) string {
		if key, _, ok := strings.Cut(match, ":"); ok {
			return fmt.Sprintf("%s: [REDACTED]", strings.TrimSpace(key))
		}
		if key, _, ok := strings.Cut(match, "="); ok {
			return fmt.Sprintf("%s=[REDACTED]", strings.TrimSpace(key))
		}
		return "[REDACTED]"
	})
	return redacted
}
