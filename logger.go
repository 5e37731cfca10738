package drivethru

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// CoordinationLogger records every dialogue turn of a session.
type CoordinationLogger interface {
	LogTurn(turn TurnLog) error
}

// TurnLog represents a single model output handled by a session
type TurnLog struct {
	Turn        int           `json:"turn"`
	SessionID   string        `json:"session_id"`
	Timestamp   time.Time     `json:"timestamp"`
	ModelOutput string        `json:"model_output"`
	Content     string        `json:"content,omitempty"`
	ToolCalls   []ToolCallLog `json:"tool_calls,omitempty"`
	OrderStatus string        `json:"order_status"`
	Error       string        `json:"error,omitempty"`
}

// ToolCallLog represents a tool execution within a turn
type ToolCallLog struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// FileCoordinationLogger logs to a file, accumulating turns and flushing at the end
type FileCoordinationLogger struct {
	sessionID string
	turns     []TurnLog
	writer    io.Writer
}

// NewFileCoordinationLogger creates a new file-based coordination logger
func NewFileCoordinationLogger(sessionID string, writer io.Writer) *FileCoordinationLogger {
	return &FileCoordinationLogger{
		sessionID: sessionID,
		turns:     make([]TurnLog, 0),
		writer:    writer,
	}
}

// LogTurn logs a turn to the buffer (does not flush immediately)
func (fcl *FileCoordinationLogger) LogTurn(turn TurnLog) error {
	fcl.turns = append(fcl.turns, turn)
	return nil
}

// Flush flushes all accumulated turns to the writer
func (fcl *FileCoordinationLogger) Flush() error {
	if fcl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"coordination_session": map[string]any{
			"session_id": fcl.sessionID,
			"timestamp":  time.Now(),
			"turns":      fcl.turns,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coordination log: %w", err)
	}

	if _, err := fcl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write coordination log: %w", err)
	}

	// Clear the buffer after successful write
	fcl.turns = fcl.turns[:0]
	return nil
}

// NoOpCoordinationLogger is a logger that discards all log entries
type NoOpCoordinationLogger struct{}

// NewNoOpCoordinationLogger creates a new no-op coordination logger
func NewNoOpCoordinationLogger() *NoOpCoordinationLogger {
	return &NoOpCoordinationLogger{}
}

// LogTurn discards the turn log (no-op)
func (nop *NoOpCoordinationLogger) LogTurn(turn TurnLog) error {
	return nil
}

// StdoutCoordinationLogger logs each turn as a JSON line
type StdoutCoordinationLogger struct {
	w io.Writer
}

// NewStdoutCoordinationLogger creates a new stdout-based coordination logger
func NewStdoutCoordinationLogger() *StdoutCoordinationLogger {
	return &StdoutCoordinationLogger{w: os.Stdout}
}

// LogTurn writes the turn as a JSON line
func (l *StdoutCoordinationLogger) LogTurn(turn TurnLog) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}
