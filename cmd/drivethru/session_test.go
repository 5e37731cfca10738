package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drivethru"
	"drivethru/coordinator"
	"drivethru/menu"
	"drivethru/order"
	"drivethru/storage"
	"drivethru/tools"
	"drivethru/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySnapshots fails the first failures writes, then behaves like the
// in-memory store.
type flakySnapshots struct {
	*storage.MemorySnapshotStore
	failures int
	calls    int
}

func (s *flakySnapshots) WriteSnapshot(ctx context.Context, data []byte) error {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("bucket unavailable")
	}
	return s.MemorySnapshotStore.WriteSnapshot(ctx, data)
}

type countingNotifier struct{ snapshots []order.Snapshot }

func (n *countingNotifier) NotifyCompleted(_ context.Context, snap order.Snapshot) error {
	n.snapshots = append(n.snapshots, snap)
	return nil
}

const completingTurns = `{"tool_calls":[{"name":"add_item_to_order","input":{"category":"Beef & Pork","item_name":"Big Mac","quantity":2}}]}
{"tool_calls":[{"name":"complete_order","input":{}}]}
{"tool_calls":[{"name":"add_item_to_order","input":{"category":"Snacks & Sides","item_name":"Fries"}}]}
`

type driveFixture struct {
	session   *coordinator.Session
	ledger    *order.Ledger
	snapshots *flakySnapshots
	notifier  *countingNotifier
}

func newDriveFixture(t *testing.T, failures int) driveFixture {
	t.Helper()

	catalog := menu.NewTestCatalog()
	f := driveFixture{
		snapshots: &flakySnapshots{MemorySnapshotStore: storage.NewMemorySnapshotStore(), failures: failures},
		notifier:  &countingNotifier{},
	}
	f.ledger = order.NewLedger("session-1", storage.NewMemoryJournal(), f.snapshots)
	orderTools := tools.NewOrderTools(catalog, validation.New(catalog, validation.DefaultConfig()), f.ledger)
	f.session = coordinator.NewSession("session-1", tools.NewRegistry(orderTools), orderTools,
		coordinator.WithNotifiers(f.notifier))
	return f
}

func TestDriveSession(t *testing.T) {
	f := newDriveFixture(t, 0)

	var out bytes.Buffer
	require.NoError(t, driveSession(context.Background(), f.session, f.ledger, strings.NewReader(completingTurns), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "input after completion is not read")
	assert.Contains(t, lines[1], "Order complete!")
	assert.True(t, f.snapshots.Written())
	assert.Equal(t, 1, f.snapshots.calls)
	assert.Len(t, f.notifier.snapshots, 1)
}

func TestDriveSession_RetriesFailedSnapshot(t *testing.T) {
	f := newDriveFixture(t, 1)

	var out bytes.Buffer
	err := driveSession(context.Background(), f.session, f.ledger, strings.NewReader(completingTurns), &out)
	require.NoError(t, err)

	assert.True(t, order.IsPersistence(f.session.Err()), "the session itself stays failed")
	assert.Equal(t, order.StatusCompleted, f.ledger.Status())
	assert.True(t, f.ledger.SnapshotWritten())
	assert.True(t, f.snapshots.Written())
	assert.Equal(t, 2, f.snapshots.calls)
	require.Len(t, f.notifier.snapshots, 1, "completion is announced once the snapshot is durable")
	assert.Equal(t, 2, f.notifier.snapshots[0].TotalQuantity)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 1, "the failed turn produces no reply")
}

func TestDriveSession_SnapshotKeepsFailing(t *testing.T) {
	f := newDriveFixture(t, 2)

	err := driveSession(context.Background(), f.session, f.ledger, strings.NewReader(completingTurns), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final snapshot still not written")
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.True(t, order.IsPersistence(err))

	assert.Equal(t, order.StatusCompleted, f.ledger.Status())
	assert.False(t, f.ledger.SnapshotWritten())
	assert.Equal(t, 2, f.snapshots.calls)
	assert.Empty(t, f.notifier.snapshots)
}

func TestDriveSession_PersistenceFailureBeforeCompletion(t *testing.T) {
	catalog := menu.NewTestCatalog()
	journal := storage.NewMemoryJournal()
	journal.SetError(errors.New("disk full"))
	snapshots := &flakySnapshots{MemorySnapshotStore: storage.NewMemorySnapshotStore()}
	ledger := order.NewLedger("session-1", journal, snapshots)
	orderTools := tools.NewOrderTools(catalog, validation.New(catalog, validation.DefaultConfig()), ledger)
	session := coordinator.NewSession("session-1", tools.NewRegistry(orderTools), orderTools)

	err := driveSession(context.Background(), session, ledger, strings.NewReader(completingTurns), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, order.IsPersistence(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, order.StatusInProgress, ledger.Status())
	assert.Zero(t, snapshots.calls, "an order that never completed is not snapshotted")
}

func TestTurnLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordination.json")

	l, finish, err := turnLogger("file", "s1", path)
	require.NoError(t, err)
	require.NoError(t, l.LogTurn(drivethru.TurnLog{Turn: 1, SessionID: "s1"}))
	finish()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coordination_session"`)
	assert.Contains(t, string(data), `"session_id": "s1"`)

	l, finish, err = turnLogger("stdout", "s1", path)
	require.NoError(t, err)
	assert.IsType(t, &drivethru.StdoutCoordinationLogger{}, l)
	finish()

	l, _, err = turnLogger("none", "s1", path)
	require.NoError(t, err)
	assert.IsType(t, &drivethru.NoOpCoordinationLogger{}, l)

	_, _, err = turnLogger("syslog", "s1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syslog")
}

type recordingHTTPClient struct{ requests []*http.Request }

func (c *recordingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: io.NopCloser(strings.NewReader("ok"))}, nil
}

func TestNotifiers(t *testing.T) {
	out, closers, err := notifiers(drivethru.NotifyConfig{}, &recordingHTTPClient{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, closers)

	client := &recordingHTTPClient{}
	out, _, err = notifiers(drivethru.NotifyConfig{SlackWebhookURL: "http://example.com/webhook", SlackChannel: "#kitchen"}, client)
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.NoError(t, out[0].NotifyCompleted(context.Background(), order.Snapshot{SessionID: "s1", Summary: "1 Big Mac", TotalQuantity: 1}))
	require.Len(t, client.requests, 1)
	assert.Equal(t, "http://example.com/webhook", client.requests[0].URL.String())
}
