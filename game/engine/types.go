package engine

import "time"

// Slot identifies a player's fixed position within a game.
// It doubles as the cell mark on the board.
type Slot int

const (
	// SlotNone marks an empty cell.
	SlotNone Slot = -1
	// Slot0 is the first player slot.
	Slot0 Slot = 0
	// Slot1 is the second player slot.
	Slot1 Slot = 1
)

// Other returns the opposing slot.
func (s Slot) Other() Slot {
	if s == Slot0 {
		return Slot1
	}
	return Slot0
}

// Phase is the lifecycle state of a game session.
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseActive  Phase = "active"
	PhaseEnded   Phase = "ended"

	// Validation constants
	MinBoardSize  = 3
	MaxBoardSize  = 19
	MinRunLength  = 3
	MinTurnTimeout = 500 * time.Millisecond
	MaxTurnTimeout = 10 * time.Minute
)

// Reason explains how a game ended.
type Reason string

const (
	ReasonWin     Reason = "win"
	ReasonDraw    Reason = "draw"
	ReasonTimeout Reason = "timeout"
)

// Player binds an external identity to a slot for the life of a session.
type Player struct {
	Identity string `json:"identity"`
	Slot     Slot   `json:"slot"`
}

// Result is the terminal outcome of a game, set exactly once at the end
// transition. Winner is nil for a draw.
type Result struct {
	Winner *string `json:"winner"`
	Reason Reason  `json:"reason"`
}

// Rules parametrizes a game session.
type Rules struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	BoardSize   int    `json:"board_size"`
	RunLength   int    `json:"run_length"`
	// TurnTimeoutMs is how long the current mover has before forfeiting.
	TurnTimeoutMs int `json:"turn_timeout_ms"`
}

// TurnTimeout returns the turn timeout as a duration.
func (r Rules) TurnTimeout() time.Duration {
	return time.Duration(r.TurnTimeoutMs) * time.Millisecond
}

// DefaultRules returns the classic 3x3, three-in-a-row ruleset.
func DefaultRules() Rules {
	return Rules{
		Name:          "classic",
		Description:   "3x3 board, three in a row, 30s turns",
		BoardSize:     3,
		RunLength:     3,
		TurnTimeoutMs: 30000,
	}
}

// ValidateRules checks rule bounds before a game is created with them.
func ValidateRules(r Rules) error {
	if r.BoardSize < MinBoardSize || r.BoardSize > MaxBoardSize {
		return &RulesError{Field: "board_size", Message: "must be between 3 and 19"}
	}
	if r.RunLength < MinRunLength || r.RunLength > r.BoardSize {
		return &RulesError{Field: "run_length", Message: "must be between 3 and the board size"}
	}
	timeout := r.TurnTimeout()
	if timeout < MinTurnTimeout || timeout > MaxTurnTimeout {
		return &RulesError{Field: "turn_timeout_ms", Message: "must be between 500ms and 10m"}
	}
	return nil
}

// RulesError reports an out-of-bounds rules field.
type RulesError struct {
	Field   string
	Message string
}

func (e *RulesError) Error() string {
	return "invalid rules: " + e.Field + " " + e.Message
}
