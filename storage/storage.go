package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// MenuSource supplies the raw menu document.
type MenuSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// Journal is an append-only record log.
type Journal interface {
	Append(ctx context.Context, record []byte) error
}

// SnapshotStore persists a session's final order document once.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, data []byte) error
}

// ErrSnapshotExists is returned when a snapshot has already been written.
var ErrSnapshotExists = errors.New("snapshot already written")

// TestMenuSource is a simple in-memory implementation for testing
type TestMenuSource struct {
	data []byte
	err  error
}

func NewTestMenuSource(data []byte) *TestMenuSource {
	return &TestMenuSource{data: data}
}

func NewTestMenuSourceWithError() *TestMenuSource {
	return &TestMenuSource{err: errors.New("not found")}
}

func (t *TestMenuSource) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// MemoryJournal keeps records in memory. It can be told to fail appends.
type MemoryJournal struct {
	records [][]byte
	err     error
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// NewFailingJournal returns a journal whose appends fail with err.
func NewFailingJournal(err error) *MemoryJournal {
	return &MemoryJournal{err: err}
}

// SetError makes later appends fail with err, or succeed again when nil.
func (j *MemoryJournal) SetError(err error) { j.err = err }

func (j *MemoryJournal) Append(ctx context.Context, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, bytes.Clone(record))
	return nil
}

// Len returns the number of records appended.
func (j *MemoryJournal) Len() int { return len(j.records) }

// Records returns copies of the appended records.
func (j *MemoryJournal) Records() [][]byte {
	out := make([][]byte, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, bytes.Clone(r))
	}
	return out
}

// Bytes returns the journal in its newline-delimited file form.
func (j *MemoryJournal) Bytes() []byte {
	var buf bytes.Buffer
	for _, r := range j.records {
		buf.Write(r)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// MemorySnapshotStore holds a single snapshot in memory.
type MemorySnapshotStore struct {
	data []byte
	err  error
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// SetError makes later writes fail with err, or succeed again when nil.
func (s *MemorySnapshotStore) SetError(err error) { s.err = err }

func (s *MemorySnapshotStore) WriteSnapshot(ctx context.Context, data []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.data != nil {
		return ErrSnapshotExists
	}
	s.data = bytes.Clone(data)
	return nil
}

// Data returns the stored snapshot, or nil if none was written.
func (s *MemorySnapshotStore) Data() []byte { return bytes.Clone(s.data) }

// Written reports whether a snapshot is stored.
func (s *MemorySnapshotStore) Written() bool { return s.data != nil }

// MultiSnapshotStore writes the snapshot to several stores. A store that
// succeeded is skipped on retry, so each store still sees one write.
type MultiSnapshotStore struct {
	stores []SnapshotStore
	done   []bool
}

func NewMultiSnapshotStore(stores ...SnapshotStore) *MultiSnapshotStore {
	return &MultiSnapshotStore{stores: stores, done: make([]bool, len(stores))}
}

func (m *MultiSnapshotStore) WriteSnapshot(ctx context.Context, data []byte) error {
	var errs []error
	for i, s := range m.stores {
		if m.done[i] {
			continue
		}
		if err := s.WriteSnapshot(ctx, data); err != nil {
			errs = append(errs, fmt.Errorf("snapshot store %d: %w", i, err))
			continue
		}
		m.done[i] = true
	}
	return errors.Join(errs...)
}
