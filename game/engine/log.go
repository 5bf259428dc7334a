package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the type of an action log entry.
type Kind string

const (
	KindStart   Kind = "start"
	KindMove    Kind = "move"
	KindTimeout Kind = "timeout"
	KindEnd     Kind = "end"
)

// ActionEntry is one immutable record in a session's action log. Seq starts
// at 1 and increases by exactly 1 across the whole session. RngSeed is
// present only on the start entry.
type ActionEntry struct {
	Seq       int       `json:"seq"`
	Kind      Kind      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"ts"`
	RngSeed   string    `json:"rng_seed,omitempty"`
}

// StartPayload records the session setup. Board size and run length are
// embedded so a replayer needs nothing but the log itself.
type StartPayload struct {
	Players   [2]string `json:"players"`
	First     string    `json:"first"`
	FirstSlot Slot      `json:"first_slot"`
	BoardSize int       `json:"board_size"`
	RunLength int       `json:"run_length"`
}

// MovePayload records one accepted placement.
type MovePayload struct {
	Player string `json:"player"`
	Slot   Slot   `json:"slot"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	MoveID string `json:"move_id,omitempty"`
}

// TimeoutPayload names the player whose turn was forfeited.
type TimeoutPayload struct {
	Player string `json:"player"`
	Slot   Slot   `json:"slot"`
}

// EndPayload records the terminal result. Winner is null for a draw.
type EndPayload struct {
	Winner *string `json:"winner"`
	Reason Reason  `json:"reason"`
}

// ActionLog is the append-only, strictly ordered record of everything that
// happened in a session. It is owned by one game and mutated only under
// that game's lock.
type ActionLog struct {
	entries []ActionEntry
}

// NewActionLog returns an empty log.
func NewActionLog() *ActionLog {
	return &ActionLog{}
}

// Append assigns the next sequence number, stamps the current time and
// stores the entry. An append that would break monotonicity is a
// programming-invariant violation and panics; callers confine the panic to
// the offending session.
func (l *ActionLog) Append(kind Kind, payload any, rngSeed string) ActionEntry {
	if rngSeed != "" && kind != KindStart {
		panic(fmt.Sprintf("actionlog: rng seed on %q entry", kind))
	}
	next := len(l.entries) + 1
	if n := len(l.entries); n > 0 && l.entries[n-1].Seq != n {
		panic(fmt.Sprintf("actionlog: sequence corrupted at %d", l.entries[n-1].Seq))
	}
	entry := ActionEntry{
		Seq:       next,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		RngSeed:   rngSeed,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a snapshot of the log. The returned slice never mutates
// retroactively; callers may re-read from the start at any time.
func (l *ActionLog) Entries() []ActionEntry {
	out := make([]ActionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries appended so far.
func (l *ActionLog) Len() int {
	return len(l.entries)
}

// DecodePayload unmarshals a raw JSON payload into the typed payload for
// kind. It is the bridge between persisted logs and the replay contract.
func DecodePayload(kind Kind, raw json.RawMessage) (any, error) {
	switch kind {
	case KindStart:
		var p StartPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode start payload: %w", err)
		}
		return p, nil
	case KindMove:
		var p MovePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode move payload: %w", err)
		}
		return p, nil
	case KindTimeout:
		var p TimeoutPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode timeout payload: %w", err)
		}
		return p, nil
	case KindEnd:
		var p EndPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode end payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}
