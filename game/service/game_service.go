package service

import (
	"context"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/session"
)

// GameService defines all game-related operations
type GameService interface {
	// Lifecycle
	CreateGame(ctx context.Context, player0, player1, presetName string) (*GameInfo, error)
	StartGame(ctx context.Context, gameID string) (*GameInfo, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Play
	SubmitMove(ctx context.Context, gameID string, move MoveRequest) (*MoveResult, error)

	// State
	GetGame(ctx context.Context, gameID string) (*GameInfo, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)
	GetActionLog(ctx context.Context, gameID string) (*ActionLogInfo, error)
	ReplayGame(ctx context.Context, gameID string) (*ReplayInfo, error)

	// Presets
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
}

// SessionManager defines the live-game registry the service runs against
type SessionManager interface {
	Create(id, player0, player1 string, rules engine.Rules, notify func([]engine.Event)) (*engine.Game, error)
	Get(id string) (*engine.Game, error)
	List() []*engine.Game
	Delete(id string) error
	ArchiveGame(id string) error
	LoadRecord(id string) (*session.GameRecord, error)
}

// PresetManager handles rules preset loading
type PresetManager interface {
	LoadPreset(name string) (engine.Rules, error)
	ListPresets() ([]*PresetInfo, error)
	GetDefault() engine.Rules
}

// EventSink receives outbound events for delivery to subscribed clients.
// Implementations must not block; the service calls Publish while holding no
// game locks but on command hot paths.
type EventSink interface {
	Publish(gameID string, events []engine.Event)
}
