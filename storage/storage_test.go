package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestMenuSource(t *testing.T) {
	data, err := NewTestMenuSource([]byte(`{}`)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)

	_, err = NewTestMenuSourceWithError().Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryJournal(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()

	rec := []byte(`{"event":"add_item"}`)
	require.NoError(t, j.Append(ctx, rec))
	rec[2] = 'X'
	assert.Equal(t, `{"event":"add_item"}`, string(j.Records()[0]), "records are copied")

	j.SetError(errors.New("disk full"))
	assert.EqualError(t, j.Append(ctx, []byte(`{}`)), "disk full")
	assert.Equal(t, 1, j.Len())

	j.SetError(nil)
	require.NoError(t, j.Append(ctx, []byte(`{"event":"cancel_order"}`)))
	assert.Equal(t, "{\"event\":\"add_item\"}\n{\"event\":\"cancel_order\"}\n", string(j.Bytes()))

	assert.Error(t, NewFailingJournal(errors.New("read-only")).Append(ctx, []byte(`{}`)))
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySnapshotStore()
	assert.False(t, s.Written())

	require.NoError(t, s.WriteSnapshot(ctx, []byte(`{"a":1}`)))
	assert.True(t, s.Written())
	assert.ErrorIs(t, s.WriteSnapshot(ctx, []byte(`{"a":2}`)), ErrSnapshotExists)
	assert.Equal(t, `{"a":1}`, string(s.Data()))
}

func TestMultiSnapshotStore(t *testing.T) {
	ctx := context.Background()
	local := NewMemorySnapshotStore()
	remote := NewMemorySnapshotStore()
	remote.SetError(errors.New("bucket unavailable"))

	multi := NewMultiSnapshotStore(local, remote)

	err := multi.WriteSnapshot(ctx, []byte(`{"v":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.True(t, local.Written())
	assert.False(t, remote.Written())

	remote.SetError(nil)
	require.NoError(t, multi.WriteSnapshot(ctx, []byte(`{"v":1}`)), "retry skips stores that already succeeded")
	assert.Equal(t, `{"v":1}`, string(remote.Data()))
	assert.Equal(t, `{"v":1}`, string(local.Data()))
}
