package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"drivethru/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	ledger    *Ledger
	journal   *storage.MemoryJournal
	snapshots *storage.MemorySnapshotStore
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()

	tick := 0
	clock := func() time.Time {
		tick++
		return epoch.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("li-%d", seq)
	}

	f := ledgerFixture{
		journal:   storage.NewMemoryJournal(),
		snapshots: storage.NewMemorySnapshotStore(),
	}
	f.ledger = NewLedger("session-1", f.journal, f.snapshots, WithClock(clock), WithIDGenerator(ids))
	return f
}

func TestLedger_NewIsEmpty(t *testing.T) {
	f := newLedgerFixture(t)

	assert.True(t, f.ledger.IsEmpty())
	assert.Equal(t, StatusInProgress, f.ledger.Status())
	assert.Equal(t, "session-1", f.ledger.SessionID())
	assert.Equal(t, epoch.Add(time.Second), f.ledger.StartedAt())
	assert.Equal(t, "No items", f.ledger.Summary())
	assert.Equal(t, 0, f.ledger.TotalQuantity())
	assert.Equal(t, []LineItem{}, f.ledger.GetLineItems())
	assert.Equal(t, 0, f.journal.Len())
}

func TestLedger_AddItem(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	li, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", []string{"No Pickles"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "li-1", li.ID)
	assert.Equal(t, "Big Mac", li.ItemName)
	assert.Equal(t, "Beef & Pork", li.Category)
	assert.Equal(t, []string{"No Pickles"}, li.Modifiers)
	assert.Equal(t, 2, li.Quantity)
	assert.False(t, li.CreatedAt.IsZero())

	assert.Equal(t, 2, f.ledger.TotalQuantity())
	require.Equal(t, 1, f.journal.Len())

	var e Event
	require.NoError(t, json.Unmarshal(f.journal.Records()[0], &e))
	assert.Equal(t, EventAddItem, e.Event)
	assert.Equal(t, "session-1", e.SessionID)
	require.NotNil(t, e.Item)
	assert.Equal(t, li, *e.Item)
	assert.Equal(t, 2, e.TotalQuantity)
}

func TestLedger_IdenticalItemsStayDistinct(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	a, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)
	b, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, f.ledger.GetLineItems(), 2)
	assert.Equal(t, "1 Big Mac, 1 Big Mac", f.ledger.Summary())
}

func TestLedger_QuantityInvariant(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	li, err := f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", []string{"Large"}, 1)
	require.NoError(t, err)
	before := f.ledger.GetLineItems()
	logLen := f.journal.Len()

	for _, q := range []int{0, -1, -100, -1 << 31} {
		_, err := f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "add quantity %d", q)

		ok, err := f.ledger.UpdateQuantity(ctx, li.ID, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "update quantity %d", q)
		assert.False(t, ok)
	}

	assert.Equal(t, before, f.ledger.GetLineItems())
	assert.Equal(t, logLen, f.journal.Len())
}

func TestLedger_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	li, err := f.ledger.AddItem(ctx, "Coca-Cola", "Beverages", []string{"Large"}, 1)
	require.NoError(t, err)

	ok, err := f.ledger.UpdateQuantity(ctx, li.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := f.ledger.GetLineItem(li.ID)
	require.True(t, found)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, 3, f.ledger.TotalQuantity())

	var e Event
	require.NoError(t, json.Unmarshal(f.journal.Records()[1], &e))
	assert.Equal(t, EventUpdateQuantity, e.Event)
	assert.Equal(t, li.ID, e.ItemID)
	assert.Equal(t, 3, e.Quantity)
	assert.Equal(t, 1, e.PreviousQuantity)

	ok, err = f.ledger.UpdateQuantity(ctx, "nope", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, f.journal.Len())
}

func TestLedger_RemoveItem(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	a, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)
	b, err := f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
	require.NoError(t, err)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		before := f.ledger.GetLineItems()
		logBefore := f.journal.Bytes()

		ok, err := f.ledger.RemoveItem(ctx, "li-999")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, f.ledger.GetLineItems())
		assert.Equal(t, logBefore, f.journal.Bytes())
	})

	t.Run("known id", func(t *testing.T) {
		ok, err := f.ledger.RemoveItem(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		items := f.ledger.GetLineItems()
		require.Len(t, items, 1)
		assert.Equal(t, b.ID, items[0].ID)

		_, found := f.ledger.GetLineItem(a.ID)
		assert.False(t, found)
	})
}

func TestLedger_Complete(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 2)
	require.NoError(t, err)

	snap, err := f.ledger.Complete(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.TotalQuantity)
	assert.Equal(t, "2 Big Macs", snap.Summary)
	assert.False(t, snap.CompletedAt.IsZero())
	assert.True(t, f.ledger.SnapshotWritten())

	var written map[string]any
	require.NoError(t, json.Unmarshal(f.snapshots.Data(), &written))
	assert.Equal(t, "session-1", written["session_id"])
	assert.Equal(t, "completed", written["status"])
	assert.Equal(t, 2.0, written["total_quantity"])
	assert.Equal(t, "2 Big Macs", written["summary"])
	assert.Contains(t, written, "started_at")
	assert.Contains(t, written, "completed_at")
	lineItems, ok := written["line_items"].([]any)
	require.True(t, ok)
	require.Len(t, lineItems, 1)
	assert.Equal(t, 2.0, lineItems[0].(map[string]any)["quantity"])

	var last Event
	records := f.journal.Records()
	require.NoError(t, json.Unmarshal(records[len(records)-1], &last))
	assert.Equal(t, EventCompleteOrder, last.Event)
	assert.Equal(t, "2 Big Macs", last.Summary)

	t.Run("terminal state refuses mutations", func(t *testing.T) {
		logLen := f.journal.Len()

		_, err := f.ledger.Complete(ctx)
		assert.ErrorIs(t, err, ErrTerminalState)
		_, err = f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
		assert.ErrorIs(t, err, ErrTerminalState)
		_, err = f.ledger.RemoveItem(ctx, "li-1")
		assert.ErrorIs(t, err, ErrTerminalState)
		_, err = f.ledger.UpdateQuantity(ctx, "li-1", 5)
		assert.ErrorIs(t, err, ErrTerminalState)
		assert.ErrorIs(t, f.ledger.Cancel(ctx), ErrTerminalState)
		assert.True(t, IsTerminal(err))

		assert.Equal(t, logLen, f.journal.Len())
		assert.Len(t, f.ledger.GetLineItems(), 1, "read access is kept")
	})
}

func TestLedger_CompleteEmpty(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Complete(context.Background())
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, StatusInProgress, f.ledger.Status())
	assert.False(t, f.snapshots.Written())
	assert.Equal(t, 0, f.journal.Len())
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AddItem(ctx, "McChicken", "Chicken & Fish", nil, 1)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Cancel(ctx))
	assert.Equal(t, StatusCancelled, f.ledger.Status())
	assert.True(t, f.ledger.IsEmpty())
	assert.Equal(t, 2, f.journal.Len())

	require.NoError(t, f.ledger.Cancel(ctx), "idempotent")
	assert.Equal(t, 2, f.journal.Len())

	_, err = f.ledger.AddItem(ctx, "McChicken", "Chicken & Fish", nil, 1)
	assert.ErrorIs(t, err, ErrTerminalState)
	_, err = f.ledger.Complete(ctx)
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestLedger_AppendFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	li, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)
	before := f.ledger.State()

	f.journal.SetError(errors.New("disk full"))

	_, err = f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
	assertPersistence(t, err)

	_, err = f.ledger.RemoveItem(ctx, li.ID)
	assertPersistence(t, err)

	_, err = f.ledger.UpdateQuantity(ctx, li.ID, 4)
	assertPersistence(t, err)

	_, err = f.ledger.Complete(ctx)
	assertPersistence(t, err)
	assert.False(t, f.snapshots.Written())

	assertPersistence(t, f.ledger.Cancel(ctx))

	assert.Equal(t, before, f.ledger.State())
	assert.Equal(t, 1, f.journal.Len())

	f.journal.SetError(nil)
	_, err = f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
	require.NoError(t, err, "the ledger recovers once the journal does")
}

func TestLedger_SnapshotFailureCanBeRetried(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)

	f.snapshots.SetError(errors.New("permission denied"))
	snap, err := f.ledger.Complete(ctx)
	assertPersistence(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, StatusCompleted, f.ledger.Status())
	assert.False(t, f.ledger.SnapshotWritten())

	f.snapshots.SetError(nil)
	require.NoError(t, f.ledger.WriteSnapshot(ctx))
	assert.True(t, f.snapshots.Written())
	require.NoError(t, f.ledger.WriteSnapshot(ctx), "already written")
}

func TestLedger_WriteSnapshotBeforeComplete(t *testing.T) {
	f := newLedgerFixture(t)
	err := f.ledger.WriteSnapshot(context.Background())
	require.Error(t, err)
	assert.False(t, IsPersistence(err))
}

func TestLedger_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	mods := []string{"No Pickles"}
	li, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", mods, 1)
	require.NoError(t, err)

	mods[0] = "Extra Pickles"
	li.Modifiers[0] = "Extra Onions"
	li.Quantity = 99
	items := f.ledger.GetLineItems()
	items[0].Modifiers[0] = "No Bun"
	got, _ := f.ledger.GetLineItem(li.ID)
	got.ItemName = "Whopper"

	stored, ok := f.ledger.GetLineItem(li.ID)
	require.True(t, ok)
	assert.Equal(t, "Big Mac", stored.ItemName)
	assert.Equal(t, []string{"No Pickles"}, stored.Modifiers)
	assert.Equal(t, 1, stored.Quantity)
}

func TestLedger_FindLatest(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	first, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)
	_, err = f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
	require.NoError(t, err)
	second, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", nil, 1)
	require.NoError(t, err)

	got, ok := f.ledger.FindLatest(MatchName("  big   MAC "))
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, got.ID)

	_, ok = f.ledger.FindLatest(MatchName("McFlurry"))
	assert.False(t, ok)
}

func TestLedger_ReplayEquivalence(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	var observed []State
	step := func(err error) {
		t.Helper()
		require.NoError(t, err)
		observed = append(observed, f.ledger.State())
	}

	a, err := f.ledger.AddItem(ctx, "Big Mac", "Beef & Pork", []string{"No Pickles"}, 1)
	step(err)
	b, err := f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", []string{"Large"}, 2)
	step(err)
	_, err = f.ledger.AddItem(ctx, "McFlurry", "Desserts", []string{"Oreo"}, 1)
	step(err)
	_, err = f.ledger.UpdateQuantity(ctx, a.ID, 3)
	step(err)
	_, err = f.ledger.RemoveItem(ctx, b.ID)
	step(err)
	_, err = f.ledger.AddItem(ctx, "Fries", "Snacks & Sides", nil, 1)
	step(err)
	_, err = f.ledger.Complete(ctx)
	step(err)

	events, err := ReadEvents(bytes.NewReader(f.journal.Bytes()))
	require.NoError(t, err)
	require.Len(t, events, len(observed))

	steps, err := ReplaySteps(events)
	require.NoError(t, err)
	require.Len(t, steps, len(observed))
	for i := range observed {
		assert.Equal(t, observed[i], steps[i], "state after record %d", i+1)
	}

	final, err := Replay(events)
	require.NoError(t, err)
	assert.Equal(t, f.ledger.GetLineItems(), final.LineItems)
	assert.Equal(t, StatusCompleted, final.Status)
}

func assertPersistence(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, IsPersistence(err), "want persistence error, got %v", err)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "session-1", pe.SessionID)
	assert.False(t, errors.Is(err, ErrTerminalState))
}
