package order

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const maxRecordSize = 1 << 20

// ReadEvents decodes an incremental log, one JSON record per line, in file
// order. Blank lines are skipped.
func ReadEvents(r io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var events []Event
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode event: %w", line, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return events, nil
}

// Replay folds events from the empty state and returns the final state.
func Replay(events []Event) (State, error) {
	steps, err := ReplaySteps(events)
	if err != nil {
		return State{}, err
	}
	if len(steps) == 0 {
		return NewState(""), nil
	}
	return steps[len(steps)-1], nil
}

// ReplaySteps folds events from the empty state and returns the state after
// each one. Records from another session or that could not have been
// produced by a ledger are rejected.
func ReplaySteps(events []Event) ([]State, error) {
	if len(events) == 0 {
		return nil, nil
	}

	state := NewState(events[0].SessionID)
	steps := make([]State, 0, len(events))
	for i, e := range events {
		if e.SessionID != state.SessionID {
			return nil, fmt.Errorf("record %d: session %q does not match %q", i+1, e.SessionID, state.SessionID)
		}
		next, err := state.applied(e)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if next.TotalQuantity() != e.TotalQuantity {
			return nil, fmt.Errorf("record %d: total quantity %d does not match logged %d", i+1, next.TotalQuantity(), e.TotalQuantity)
		}
		state = next
		steps = append(steps, state.clone())
	}
	return steps, nil
}
