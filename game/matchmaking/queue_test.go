package matchmaking

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/service"
	"github.com/statefulgames/kinarow/game/session"
)

type fixedPresets struct{}

func (fixedPresets) LoadPreset(name string) (engine.Rules, error) {
	return engine.Rules{Name: name, BoardSize: 3, RunLength: 3, TurnTimeoutMs: 30000}, nil
}

func (fixedPresets) ListPresets() ([]*service.PresetInfo, error) {
	return nil, nil
}

func (fixedPresets) GetDefault() engine.Rules {
	return engine.Rules{Name: "classic", BoardSize: 3, RunLength: 3, TurnTimeoutMs: 30000}
}

func newTestQueue(t *testing.T) (*Queue, service.GameService) {
	t.Helper()
	mgr := session.NewManager(zap.NewNop())
	svc := service.NewGameService(mgr, fixedPresets{}, nil, zap.NewNop())
	return NewQueue(svc, zap.NewNop()), svc
}

func TestQueue_PairsTwoPlayers(t *testing.T) {
	q, svc := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Join(ctx, "alice", "classic")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if first.Matched {
		t.Fatal("First player should wait")
	}
	if q.Waiting() != 1 {
		t.Errorf("Expected 1 waiting ticket, got %d", q.Waiting())
	}

	second, err := q.Join(ctx, "bob", "classic")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !second.Matched || second.GameID == "" {
		t.Fatalf("Second player should match immediately: %+v", second)
	}

	// The waiting player's ticket resolves to the same game.
	status, err := q.Status(first.Ticket.ID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.GameID != second.GameID {
		t.Errorf("Tickets disagree on game: %s vs %s", status.GameID, second.GameID)
	}

	// The matched game is already active.
	info, err := svc.GetGame(ctx, second.GameID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if info.Phase != engine.PhaseActive {
		t.Errorf("Expected active game after match, got %s", info.Phase)
	}
	if info.Players != [2]string{"alice", "bob"} {
		t.Errorf("Expected queue order preserved, got %v", info.Players)
	}
	if q.Waiting() != 0 {
		t.Errorf("Expected empty queue after match, got %d", q.Waiting())
	}
}

func TestQueue_SeparatePresetsDoNotMatch(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Join(ctx, "alice", "classic"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	res, err := q.Join(ctx, "bob", "gomoku")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if res.Matched {
		t.Error("Players on different presets must not match")
	}
	if q.Waiting() != 2 {
		t.Errorf("Expected 2 waiting tickets, got %d", q.Waiting())
	}
}

func TestQueue_DuplicateJoin(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Join(ctx, "alice", "classic"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := q.Join(ctx, "alice", "classic"); err != ErrAlreadyQueued {
		t.Errorf("Expected ErrAlreadyQueued, got %v", err)
	}
}

func TestQueue_Leave(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	res, err := q.Join(ctx, "alice", "classic")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := q.Leave(res.Ticket.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if q.Waiting() != 0 {
		t.Errorf("Expected empty queue after leave, got %d", q.Waiting())
	}
	if _, err := q.Status(res.Ticket.ID); err != ErrTicketNotFound {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}

	// A later join must wait again rather than match the withdrawn player.
	res2, err := q.Join(ctx, "bob", "classic")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if res2.Matched {
		t.Error("Matched against a withdrawn ticket")
	}
}
