// Package events publishes lock action outcomes to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// ActionCompletedType is the event type of a finished lock or unlock call.
	ActionCompletedType = "seam.locks.action.completed"
	eventSource         = "seam-mcp"
)

// ActionEvent describes one completed lock action.
type ActionEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Time       time.Time `json:"time"`
	Tool       string    `json:"tool"`
	Action     string    `json:"action"`
	DeviceID   string    `json:"deviceId,omitempty"`
	Outcome    string    `json:"outcome"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Message    string    `json:"message"`
}

// NewActionEvent stamps a new event with an ID and the current UTC time.
func NewActionEvent(tool, action, deviceID, outcome string) ActionEvent {
	return ActionEvent{
		ID:       uuid.NewString(),
		Type:     ActionCompletedType,
		Source:   eventSource,
		Time:     time.Now().UTC(),
		Tool:     strings.TrimSpace(tool),
		Action:   strings.TrimSpace(action),
		DeviceID: strings.TrimSpace(deviceID),
		Outcome:  strings.TrimSpace(outcome),
	}
}

// Publisher delivers action events.
type Publisher interface {
	Publish(ctx context.Context, event ActionEvent) error
	Close() error
}

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL     string
	Subject string
	Name    string
}

// NATSPublisher publishes each event on "<Subject>.<action>".
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(cfg NATSConfig, logger zerolog.Logger) (*NATSPublisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("nats: URL is required")
	}
	subject := strings.Trim(strings.TrimSpace(cfg.Subject), ".")
	if subject == "" {
		return nil, fmt.Errorf("nats: subject is required")
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = eventSource
	}

	log := logger.With().Str("component", "events").Logger()
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrlRedacted()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: subject, logger: log}, nil
}

// Subject returns the full subject an action is published on.
func (p *NATSPublisher) Subject(action string) string {
	return p.subject + "." + strings.TrimSpace(action)
}

// Publish encodes and publishes event, flushing so delivery errors surface here.
func (p *NATSPublisher) Publish(ctx context.Context, event ActionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding action event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(event.Action), data); err != nil {
		return fmt.Errorf("publishing action event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing action event: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
