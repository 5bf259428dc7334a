package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/session"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	presets  PresetManager
	sink     EventSink
	logger   *zap.Logger
}

// NewGameService creates a new game service instance. sink may be nil when
// no event delivery is wanted (offline tooling, tests).
func NewGameService(sessions SessionManager, presets PresetManager, sink EventSink, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		presets:  presets,
		sink:     sink,
		logger:   logger,
	}
}

// CreateGame registers a new pending game for two players under the named
// rules preset, or the default preset when presetName is empty.
func (s *gameServiceImpl) CreateGame(ctx context.Context, player0, player1, presetName string) (*GameInfo, error) {
	var rules engine.Rules
	if presetName != "" {
		loaded, err := s.presets.LoadPreset(presetName)
		if err != nil {
			available, listErr := s.presets.ListPresets()
			if listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, p := range available {
					ids = append(ids, p.PresetID)
				}
				return nil, fmt.Errorf("preset '%s' not found, available presets: %v", presetName, ids)
			}
			return nil, fmt.Errorf("failed to load preset %s: %w", presetName, err)
		}
		rules = loaded
	} else {
		rules = s.presets.GetDefault()
	}

	game, err := s.sessions.Create("", player0, player1, rules, s.notify)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.logger.Info("game created",
		zap.String("game_id", game.ID()),
		zap.String("preset", rules.Name))

	return s.gameInfo(game), nil
}

// StartGame transitions a pending game to active.
func (s *gameServiceImpl) StartGame(ctx context.Context, gameID string) (*GameInfo, error) {
	game, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}

	events, err := game.Start()
	if err != nil {
		return nil, err
	}
	s.dispatch(gameID, events)

	return s.gameInfo(game), nil
}

// SubmitMove applies one placement attempt. A rule rejection is returned as
// an unaccepted MoveResult, not an error; errors signal the game is missing
// or the infrastructure failed.
func (s *gameServiceImpl) SubmitMove(ctx context.Context, gameID string, move MoveRequest) (*MoveResult, error) {
	game, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}

	entry, events, err := game.SubmitMove(move.Player, move.X, move.Y, move.MoveID)
	if err != nil {
		rej, ok := engine.AsMoveError(err)
		if !ok {
			return nil, err
		}
		s.dispatch(gameID, events)
		s.logger.Debug("move rejected",
			zap.String("game_id", gameID),
			zap.String("player", move.Player),
			zap.String("code", string(rej.Code)))
		return &MoveResult{
			Accepted: false,
			Rejection: &RejectionInfo{
				Code:     rej.Code,
				Message:  rej.Message,
				Expected: rej.Expected,
			},
			Game: s.gameInfo(game),
		}, nil
	}

	s.dispatch(gameID, events)

	return &MoveResult{
		Accepted: true,
		Action:   &entry,
		Game:     s.gameInfo(game),
	}, nil
}

// GetGame returns a snapshot of one live game.
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	game, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return s.gameInfo(game), nil
}

// ListGames returns snapshots of all live games.
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	games := s.sessions.List()
	infos := make([]*GameInfo, 0, len(games))
	for _, g := range games {
		infos = append(infos, s.gameInfo(g))
	}
	return infos, nil
}

// DeleteGame removes an ended game from the registry.
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	return s.sessions.Delete(gameID)
}

// GetActionLog returns a game's append-only log, live games included.
func (s *gameServiceImpl) GetActionLog(ctx context.Context, gameID string) (*ActionLogInfo, error) {
	game, err := s.sessions.Get(gameID)
	if err == nil {
		entries := game.Entries()
		return &ActionLogInfo{
			GameID:      gameID,
			ActionCount: len(entries),
			Actions:     entries,
		}, nil
	}
	if !errors.Is(err, session.ErrGameNotFound) {
		return nil, err
	}

	record, err := s.sessions.LoadRecord(gameID)
	if err != nil {
		return nil, err
	}
	entries, err := record.Entries()
	if err != nil {
		return nil, err
	}
	return &ActionLogInfo{
		GameID:      gameID,
		ActionCount: len(entries),
		Actions:     entries,
	}, nil
}

// ReplayGame rebuilds a game's state purely from its action log. It prefers
// the live log and falls back to the archive for finished games.
func (s *gameServiceImpl) ReplayGame(ctx context.Context, gameID string) (*ReplayInfo, error) {
	log, err := s.GetActionLog(ctx, gameID)
	if err != nil {
		return nil, err
	}
	_, liveErr := s.sessions.Get(gameID)
	live := liveErr == nil

	state, err := engine.Replay(gameID, log.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to replay game %s: %w", gameID, err)
	}

	return &ReplayInfo{
		GameID:      gameID,
		Players:     state.Players,
		Board:       state.Board.Grid(),
		Phase:       state.Phase,
		Result:      state.Result,
		ActionCount: log.ActionCount,
		FromArchive: !live,
	}, nil
}

// ListPresets returns the available rules presets.
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	return s.presets.ListPresets()
}

// notify receives events from clock-driven transitions, where no caller is
// waiting on a synchronous return.
func (s *gameServiceImpl) notify(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	s.dispatch(events[0].GameID, events)
}

// dispatch publishes events to the sink and archives the game when one of
// them is the terminal transition. Archival runs off the command path.
func (s *gameServiceImpl) dispatch(gameID string, events []engine.Event) {
	if s.sink != nil {
		s.sink.Publish(gameID, events)
	}

	for _, e := range events {
		if e.Type == engine.EventGameEnded {
			go func() {
				if err := s.sessions.ArchiveGame(gameID); err != nil {
					s.logger.Error("failed to archive finished game",
						zap.String("game_id", gameID),
						zap.Error(err))
				}
			}()
			return
		}
	}
}

func (s *gameServiceImpl) gameInfo(g *engine.Game) *GameInfo {
	players := g.Players()
	info := &GameInfo{
		ID:            g.ID(),
		Players:       [2]string{players[0].Identity, players[1].Identity},
		Rules:         g.Rules(),
		Phase:         g.Phase(),
		CurrentPlayer: g.CurrentPlayer(),
		Board:         g.Grid(),
		ActionCount:   g.ActionCount(),
		CreatedAt:     g.CreatedAt(),
		Result:        g.Result(),
	}
	if ended := g.EndedAt(); !ended.IsZero() {
		info.EndedAt = &ended
	}
	return info
}
