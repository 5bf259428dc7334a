package service

import (
	"time"

	"github.com/statefulgames/kinarow/game/engine"
)

// GameInfo provides a point-in-time view of one game session
type GameInfo struct {
	ID            string          `json:"id"`
	Players       [2]string       `json:"players"`
	Rules         engine.Rules    `json:"rules"`
	Phase         engine.Phase    `json:"phase"`
	CurrentPlayer string          `json:"current_player,omitempty"`
	Board         [][]engine.Slot `json:"board"`
	ActionCount   int             `json:"action_count"`
	CreatedAt     time.Time       `json:"created_at"`
	EndedAt       *time.Time      `json:"ended_at,omitempty"`
	Result        *engine.Result  `json:"result,omitempty"`
}

// MoveRequest carries one placement attempt
type MoveRequest struct {
	Player string `json:"player" mapstructure:"player"`
	X      int    `json:"x" mapstructure:"x"`
	Y      int    `json:"y" mapstructure:"y"`
	MoveID string `json:"move_id,omitempty" mapstructure:"move_id"`
}

// MoveResult contains the outcome of a move attempt. Rejections are a
// normal outcome, not a transport error: Accepted is false and Rejection
// carries the code.
type MoveResult struct {
	Accepted  bool                `json:"accepted"`
	Action    *engine.ActionEntry `json:"action,omitempty"`
	Rejection *RejectionInfo      `json:"rejection,omitempty"`
	Game      *GameInfo           `json:"game"`
}

// RejectionInfo describes why a move was refused
type RejectionInfo struct {
	Code     engine.Code `json:"code"`
	Message  string      `json:"message"`
	Expected string      `json:"expected,omitempty"`
}

// ActionLogInfo exposes a game's append-only log
type ActionLogInfo struct {
	GameID      string               `json:"game_id"`
	ActionCount int                  `json:"action_count"`
	Actions     []engine.ActionEntry `json:"actions"`
}

// ReplayInfo is the state reconstructed from an archived or live log
type ReplayInfo struct {
	GameID      string          `json:"game_id"`
	Players     [2]string       `json:"players"`
	Board       [][]engine.Slot `json:"board"`
	Phase       engine.Phase    `json:"phase"`
	Result      *engine.Result  `json:"result,omitempty"`
	ActionCount int             `json:"action_count"`
	FromArchive bool            `json:"from_archive"`
}

// PresetInfo provides information about a rules preset
type PresetInfo struct {
	PresetID      string `json:"preset_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	BoardSize     int    `json:"board_size"`
	RunLength     int    `json:"run_length"`
	TurnTimeoutMs int    `json:"turn_timeout_ms"`
}
