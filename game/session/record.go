package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/statefulgames/kinarow/game/engine"
)

// LogStore defines the interface for archiving finished games.
type LogStore interface {
	// Archive persists a finished game's record
	Archive(record *GameRecord) error

	// Load retrieves an archived record by game ID
	Load(gameID string) (*GameRecord, error)

	// List returns all archived game IDs
	List() ([]string, error)

	// Exists checks whether a record is archived
	Exists(gameID string) bool
}

// GameRecord is the durable JSON form of a finished session: identity,
// outcome and the complete action log. Replaying Actions through
// engine.Replay reconstructs the final state exactly.
type GameRecord struct {
	GameID      string         `json:"gameId"`
	Players     [2]string      `json:"players"`
	CreatedAt   time.Time      `json:"createdAt"`
	EndedAt     time.Time      `json:"endedAt"`
	Result      RecordResult   `json:"result"`
	ActionCount int            `json:"actionCount"`
	Actions     []RecordAction `json:"actions"`
}

// RecordResult mirrors engine.Result in the archive format. Winner is null
// for draws.
type RecordResult struct {
	Winner *string       `json:"winner"`
	Reason engine.Reason `json:"reason"`
}

// RecordAction is one archived log entry. Payload stays raw JSON so records
// round-trip byte-for-byte; Entries re-types it on demand.
type RecordAction struct {
	Seq       int             `json:"seq"`
	Type      engine.Kind     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"ts"`
	RngSeed   string          `json:"rng_seed,omitempty"`
}

// NewGameRecord snapshots a finished game into its archive form. The game
// must have ended; live games have no result to record.
func NewGameRecord(g *engine.Game) (*GameRecord, error) {
	result := g.Result()
	if result == nil {
		return nil, fmt.Errorf("game %s has not ended", g.ID())
	}

	entries := g.Entries()
	actions := make([]RecordAction, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload for seq %d: %w", e.Seq, err)
		}
		actions = append(actions, RecordAction{
			Seq:       e.Seq,
			Type:      e.Kind,
			Payload:   payload,
			Timestamp: e.Timestamp,
			RngSeed:   e.RngSeed,
		})
	}

	players := g.Players()
	return &GameRecord{
		GameID:      g.ID(),
		Players:     [2]string{players[0].Identity, players[1].Identity},
		CreatedAt:   g.CreatedAt(),
		EndedAt:     g.EndedAt(),
		Result:      RecordResult{Winner: result.Winner, Reason: result.Reason},
		ActionCount: len(actions),
		Actions:     actions,
	}, nil
}

// Entries re-types the archived actions into engine log entries, suitable
// for engine.Replay.
func (r *GameRecord) Entries() ([]engine.ActionEntry, error) {
	entries := make([]engine.ActionEntry, 0, len(r.Actions))
	for _, a := range r.Actions {
		payload, err := engine.DecodePayload(a.Type, a.Payload)
		if err != nil {
			return nil, fmt.Errorf("record %s seq %d: %w", r.GameID, a.Seq, err)
		}
		entries = append(entries, engine.ActionEntry{
			Seq:       a.Seq,
			Kind:      a.Type,
			Payload:   payload,
			Timestamp: a.Timestamp,
			RngSeed:   a.RngSeed,
		})
	}
	return entries, nil
}

// Validate checks the structural invariants of an archived record.
func (r *GameRecord) Validate() error {
	if r.GameID == "" {
		return fmt.Errorf("record missing game ID")
	}
	if r.ActionCount != len(r.Actions) {
		return fmt.Errorf("record %s: actionCount %d does not match %d actions", r.GameID, r.ActionCount, len(r.Actions))
	}
	for i, a := range r.Actions {
		if a.Seq != i+1 {
			return fmt.Errorf("record %s: action %d has seq %d", r.GameID, i, a.Seq)
		}
		if a.RngSeed != "" && a.Type != engine.KindStart {
			return fmt.Errorf("record %s: rng seed on %s entry seq %d", r.GameID, a.Type, a.Seq)
		}
	}
	return nil
}
