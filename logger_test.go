package drivethru

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFileCoordinationLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileCoordinationLogger("s1", &buf)

	require.NoError(t, l.LogTurn(TurnLog{Turn: 1, SessionID: "s1", ModelOutput: "hi", OrderStatus: "in_progress"}))
	require.NoError(t, l.LogTurn(TurnLog{Turn: 2, SessionID: "s1", ToolCalls: []ToolCallLog{{Name: "complete_order"}}}))
	assert.Zero(t, buf.Len(), "nothing is written before Flush")

	require.NoError(t, l.Flush())

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	session := doc["coordination_session"]
	assert.Equal(t, "s1", session["session_id"])
	assert.Len(t, session["turns"], 2)
}

func TestFileCoordinationLogger_FlushError(t *testing.T) {
	l := NewFileCoordinationLogger("s1", failingWriter{})
	require.NoError(t, l.LogTurn(TurnLog{Turn: 1}))

	err := l.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write coordination log")
}

func TestStdoutCoordinationLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &StdoutCoordinationLogger{w: &buf}

	require.NoError(t, l.LogTurn(TurnLog{Turn: 1, SessionID: "s1"}))
	require.NoError(t, l.LogTurn(TurnLog{Turn: 2, SessionID: "s1"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var turn TurnLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &turn))
	assert.Equal(t, 2, turn.Turn)

	assert.NoError(t, NewNoOpCoordinationLogger().LogTurn(TurnLog{}))
}
