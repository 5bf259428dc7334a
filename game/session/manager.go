package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrGameStillLive     = errors.New("game has not ended")
)

// Manager handles game session lifecycle: creation, lookup and removal of
// live games plus archival of finished ones.
type Manager struct {
	games   map[string]*engine.Game
	archive LogStore
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewManager creates a session manager without an archive.
func NewManager(logger *zap.Logger) *Manager {
	return NewManagerWithArchive(nil, logger)
}

// NewManagerWithArchive creates a session manager that archives finished
// games to the given store.
func NewManagerWithArchive(archive LogStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		games:   make(map[string]*engine.Game),
		archive: archive,
		logger:  logger,
	}
}

// Create registers a new pending game for two players. An empty id gets a
// generated UUID. notify is forwarded to the game for clock-driven events.
func (m *Manager) Create(id, player0, player1 string, rules engine.Rules, notify func([]engine.Event)) (*engine.Game, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[id]; exists {
		return nil, ErrGameAlreadyExists
	}

	game, err := engine.NewGame(id, player0, player1, rules, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	m.games[id] = game
	m.logger.Info("game created",
		zap.String("game_id", id),
		zap.String("player0", player0),
		zap.String("player1", player1),
		zap.String("rules", rules.Name))

	return game, nil
}

// Get retrieves a live game by ID.
func (m *Manager) Get(id string) (*engine.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	game, exists := m.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// List returns all live games.
func (m *Manager) List() []*engine.Game {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*engine.Game, 0, len(m.games))
	for _, game := range m.games {
		result = append(result, game)
	}
	return result
}

// Count returns the number of live games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Delete removes a game from the registry. Only ended games may be removed;
// a live game keeps its turn clock and must finish first.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, exists := m.games[id]
	if !exists {
		return ErrGameNotFound
	}
	if game.Phase() != engine.PhaseEnded {
		return ErrGameStillLive
	}

	delete(m.games, id)
	m.logger.Info("game removed", zap.String("game_id", id))
	return nil
}

// ArchiveGame writes a finished game's record to the archive store. It is a
// no-op when no archive is configured.
func (m *Manager) ArchiveGame(id string) error {
	if m.archive == nil {
		return nil
	}

	game, err := m.Get(id)
	if err != nil {
		return err
	}

	record, err := NewGameRecord(game)
	if err != nil {
		return err
	}

	if err := m.archive.Archive(record); err != nil {
		return fmt.Errorf("failed to archive game %s: %w", id, err)
	}

	m.logger.Info("game archived",
		zap.String("game_id", id),
		zap.Int("action_count", record.ActionCount),
		zap.String("reason", string(record.Result.Reason)))
	return nil
}

// LoadRecord fetches a record from the archive store.
func (m *Manager) LoadRecord(id string) (*GameRecord, error) {
	if m.archive == nil {
		return nil, ErrGameNotFound
	}
	return m.archive.Load(id)
}
