package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"drivethru/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestNATSPublisher_NotifyCompleted(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "orders.completed")
	sent := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return sent }

	snap := order.Snapshot{SessionID: "s1", Status: order.StatusCompleted, TotalQuantity: 2, Summary: "2 Big Macs"}
	require.NoError(t, p.NotifyCompleted(context.Background(), snap))

	assert.Equal(t, "orders.completed", conn.subject)
	var got OrderCompleted
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, TypeOrderCompleted, got.Type)
	assert.Equal(t, sent, got.SentAt)
	assert.Equal(t, "s1", got.Snapshot.SessionID)
	assert.Equal(t, 2, got.Snapshot.TotalQuantity)
	assert.NoError(t, p.Close())
}

func TestNATSPublisher_Errors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn, "orders.completed")

	err := p.NotifyCompleted(context.Background(), order.Snapshot{SessionID: "s1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.completed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.NotifyCompleted(ctx, order.Snapshot{}), context.Canceled)
}
