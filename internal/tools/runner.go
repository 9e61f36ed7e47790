// Package tools executes MCP tool calls against the Seam lock gateway.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aaronjoyvictor/seam-mcp/internal/events"
	"github.com/aaronjoyvictor/seam-mcp/internal/metrics"
	"github.com/aaronjoyvictor/seam-mcp/internal/seam"
)

// Tool names exposed over MCP.
const (
	ToolLockDoor   = "lock_door"
	ToolUnlockDoor = "unlock_door"
)

const (
	resultSuccess = "success"
	resultError   = "error"

	eventPublishTimeout = 2 * time.Second
	tracerName          = "github.com/aaronjoyvictor/seam-mcp/internal/tools"
)

// LockGateway performs lock actions against the downstream API.
type LockGateway interface {
	Perform(ctx context.Context, action seam.Action) (string, error)
	DeviceID() string
}

// Options wires optional collaborators into a Runner.
type Options struct {
	Metrics *metrics.Recorder
	Events  events.Publisher
	Logger  zerolog.Logger
}

// Runner executes MCP tool calls.
type Runner struct {
	gateway LockGateway
	metrics *metrics.Recorder
	events  events.Publisher
	tracer  trace.Tracer
	logger  zerolog.Logger
}

type lockArgs struct {
	Confirm *bool `json:"confirm,omitempty"`
}

// NewRunner creates a tool runner backed by gateway.
func NewRunner(gateway LockGateway, opts Options) *Runner {
	return &Runner{
		gateway: gateway,
		metrics: opts.Metrics,
		events:  opts.Events,
		tracer:  otel.Tracer(tracerName),
		logger:  opts.Logger.With().Str("component", "tools").Logger(),
	}
}

// DeviceID returns the device the runner acts on.
func (r *Runner) DeviceID() string {
	return r.gateway.DeviceID()
}

// ActionForTool maps a tool name to its lock action.
func ActionForTool(name string) (seam.Action, bool) {
	switch strings.TrimSpace(name) {
	case ToolLockDoor:
		return seam.ActionLock, true
	case ToolUnlockDoor:
		return seam.ActionUnlock, true
	default:
		return 0, false
	}
}

// Call executes one tool by name and returns the text result.
func (r *Runner) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	name = strings.TrimSpace(name)
	action, ok := ActionForTool(name)
	if !ok {
		r.metrics.ToolCall(name, resultError)
		return "", notFoundErrorf("unknown tool: %s", name)
	}

	var parsed lockArgs
	if err := decodeArgsStrict(args, &parsed); err != nil {
		r.metrics.ToolCall(name, resultError)
		return "", err
	}

	ctx, span := r.tracer.Start(ctx, "tool "+name, trace.WithAttributes(
		attribute.String("mcp.tool", name),
		attribute.String("seam.action", action.String()),
	))
	defer span.End()

	started := time.Now()
	message, err := r.gateway.Perform(ctx, action)
	elapsed := time.Since(started)

	kind := seam.KindOf(err)
	if kind != seam.KindConfiguration {
		outcome := resultSuccess
		if err != nil {
			outcome = string(kind)
			if outcome == "" {
				outcome = resultError
			}
		}
		r.metrics.Downstream(action.String(), outcome, elapsed)
	}

	if err != nil {
		mapped := mapExecutionError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Error())
		r.metrics.ToolCall(name, resultError)
		r.publish(ctx, name, action, mapped)
		return "", mapped
	}

	span.SetStatus(codes.Ok, "")
	r.metrics.ToolCall(name, resultSuccess)
	r.publish(ctx, name, action, nil)
	return message, nil
}

func (r *Runner) publish(ctx context.Context, tool string, action seam.Action, err error) {
	if r.events == nil {
		return
	}

	event := events.NewActionEvent(tool, action.String(), r.gateway.DeviceID(), resultSuccess)
	event.Message = action.SuccessMessage()
	if err != nil {
		event.Outcome = resultError
		event.Message = err.Error()
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			event.ErrorKind = string(toolErr.Kind())
		}
		var remoteErr *seam.RemoteServiceError
		if errors.As(err, &remoteErr) {
			event.StatusCode = remoteErr.StatusCode
		}
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if pubErr := r.events.Publish(publishCtx, event); pubErr != nil {
		r.logger.Warn().Err(pubErr).Str("tool", tool).Str("event_id", event.ID).Msg("publishing action event failed")
	}
}

func decodeArgsStrict(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return validationErrorf("invalid tool arguments: %v", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return validationErrorf("invalid tool arguments: %v", err)
	}
	return nil
}
