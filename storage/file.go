package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	JournalFileName      = "incremental_log.jsonl"
	SnapshotFileName     = "final_order.json"
	CoordinationFileName = "coordination.json"
)

type FileMenuSource struct {
	FilePath string
}

func NewFileMenuSource(filePath string) *FileMenuSource {
	return &FileMenuSource{FilePath: filePath}
}

func (m *FileMenuSource) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(m.FilePath)
}

// FileJournal appends newline-terminated records to a file. A failed append
// is rolled back so the file only ever holds whole records.
type FileJournal struct {
	f      *os.File
	offset int64
	sync   bool
}

// OpenFileJournal opens or creates the journal at path. With sync, every
// append is flushed to stable storage before it returns.
func OpenFileJournal(path string, sync bool) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}
	return &FileJournal{f: f, offset: info.Size(), sync: sync}, nil
}

func (j *FileJournal) Append(ctx context.Context, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bytes.ContainsAny(record, "\r\n") {
		return errors.New("journal record must be a single line")
	}

	line := make([]byte, 0, len(record)+1)
	line = append(line, record...)
	line = append(line, '\n')

	if _, err := j.f.Write(line); err != nil {
		return j.rollback(fmt.Errorf("failed to append journal record: %w", err))
	}
	if j.sync {
		if err := j.f.Sync(); err != nil {
			return j.rollback(fmt.Errorf("failed to sync journal: %w", err))
		}
	}
	j.offset += int64(len(line))
	return nil
}

func (j *FileJournal) rollback(cause error) error {
	if err := j.f.Truncate(j.offset); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to roll back journal: %w", err))
	}
	return cause
}

// Path returns the journal file path.
func (j *FileJournal) Path() string { return j.f.Name() }

func (j *FileJournal) Close() error {
	return j.f.Close()
}

// FileSnapshotStore writes the snapshot to a file that must not exist yet.
type FileSnapshotStore struct {
	FilePath string
}

func NewFileSnapshotStore(filePath string) *FileSnapshotStore {
	return &FileSnapshotStore{FilePath: filePath}
}

func (s *FileSnapshotStore) WriteSnapshot(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.FilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", s.FilePath, ErrSnapshotExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		// Leave no partial snapshot behind so the write can be retried.
		os.Remove(s.FilePath)
		return fmt.Errorf("failed to write snapshot: %w", werr)
	}
	return nil
}

// Session holds the files one conversation writes under its own directory.
type Session struct {
	ID               string
	Dir              string
	Journal          *FileJournal
	Snapshots        *FileSnapshotStore
	CoordinationPath string
}

// OpenSession creates <root>/<sessionID>/ and opens the session's journal.
// The directory must not exist yet: no two sessions share files.
func OpenSession(root, sessionID string, sync bool) (*Session, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	dir := filepath.Join(root, sessionID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	journal, err := OpenFileJournal(filepath.Join(dir, JournalFileName), sync)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:               sessionID,
		Dir:              dir,
		Journal:          journal,
		Snapshots:        NewFileSnapshotStore(filepath.Join(dir, SnapshotFileName)),
		CoordinationPath: filepath.Join(dir, CoordinationFileName),
	}, nil
}

func (s *Session) Close() error {
	return s.Journal.Close()
}

func checkSessionID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("invalid session id %q", id)
	case strings.ContainsAny(id, `/\`), strings.ContainsRune(id, os.PathSeparator):
		return fmt.Errorf("invalid session id %q: must not contain path separators", id)
	}
	return nil
}
