package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	natssrv "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSPublisher_PublishesOnActionSubject(t *testing.T) {
	natsURL := startEmbeddedNATS(t)

	publisher, err := NewNATSPublisher(NATSConfig{URL: natsURL, Subject: "seam.locks.actions."}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, publisher.Close()) })
	require.Equal(t, "seam.locks.actions.unlock", publisher.Subject("unlock"))

	conn, err := natsgo.Connect(natsURL)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	sub, err := conn.SubscribeSync("seam.locks.actions.>")
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	event := NewActionEvent("unlock_door", "unlock", "device-123", "error")
	event.ErrorKind = "remote"
	event.StatusCode = 403
	event.Message = "Unlock failed (403): invalid token"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, publisher.Publish(ctx, event))

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "seam.locks.actions.unlock", msg.Subject)

	var got ActionEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, ActionCompletedType, got.Type)
	assert.Equal(t, "seam-mcp", got.Source)
	assert.Equal(t, "unlock_door", got.Tool)
	assert.Equal(t, "device-123", got.DeviceID)
	assert.Equal(t, "error", got.Outcome)
	assert.Equal(t, "remote", got.ErrorKind)
	assert.Equal(t, 403, got.StatusCode)
	assert.Equal(t, "Unlock failed (403): invalid token", got.Message)
}

func TestNewNATSPublisher_Validation(t *testing.T) {
	_, err := NewNATSPublisher(NATSConfig{Subject: "x"}, zerolog.Nop())
	require.ErrorContains(t, err, "URL is required")

	_, err = NewNATSPublisher(NATSConfig{URL: "nats://127.0.0.1:4222", Subject: " . "}, zerolog.Nop())
	require.ErrorContains(t, err, "subject is required")
}

func TestNewActionEvent_StampsIdentity(t *testing.T) {
	first := NewActionEvent("lock_door", "lock", "d", "success")
	second := NewActionEvent("lock_door", "lock", "d", "success")

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, time.UTC, first.Time.Location())
}

func startEmbeddedNATS(t *testing.T) string {
	t.Helper()

	srv, err := natssrv.NewServer(&natssrv.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go srv.Start()
	require.True(t, srv.ReadyForConnections(10*time.Second), "nats server did not become ready")

	t.Cleanup(func() {
		srv.Shutdown()
		srv.WaitForShutdown()
	})

	return fmt.Sprintf("nats://%s", srv.Addr().String())
}
