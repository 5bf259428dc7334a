package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/session"
)

// archiveFinishedGame plays one 3x3 game to a first-mover win and archives
// it into dir.
func archiveFinishedGame(t *testing.T, dir, id string) {
	t.Helper()

	store, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	mgr := session.NewManagerWithArchive(store, zap.NewNop())

	rules := engine.Rules{Name: "test", BoardSize: 3, RunLength: 3, TurnTimeoutMs: 30000}
	game, err := mgr.Create(id, "alice", "bob", rules, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := game.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first := game.CurrentPlayer()
	second := "alice"
	if first == "alice" {
		second = "bob"
	}
	moves := []struct {
		player string
		x, y   int
	}{
		{first, 0, 0}, {second, 1, 0},
		{first, 0, 1}, {second, 1, 1},
		{first, 0, 2},
	}
	for _, m := range moves {
		if _, _, err := game.SubmitMove(m.player, m.x, m.y, ""); err != nil {
			t.Fatalf("Move rejected: %v", err)
		}
	}
	if err := mgr.ArchiveGame(id); err != nil {
		t.Fatalf("ArchiveGame failed: %v", err)
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	archiveFinishedGame(t, dir, "a1")
	archiveFinishedGame(t, dir, "a2")

	summary, err := analyzeDir(dir)
	if err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}

	if summary.Games != 2 {
		t.Errorf("Expected 2 games, got %d", summary.Games)
	}
	if summary.ByReason[engine.ReasonWin] != 2 {
		t.Errorf("Expected 2 wins, got %d", summary.ByReason[engine.ReasonWin])
	}
	if summary.TotalMoves != 10 {
		t.Errorf("Expected 10 total moves, got %d", summary.TotalMoves)
	}
	if len(summary.Corrupt) != 0 {
		t.Errorf("Unexpected corrupt records: %v", summary.Corrupt)
	}
}

func TestAnalyzeDir_FlagsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	archiveFinishedGame(t, dir, "good")

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"gameId":"bad","actionCount":1,"actions":[]}`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	summary, err := analyzeDir(dir)
	if err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}
	if summary.Games != 1 {
		t.Errorf("Expected 1 clean game, got %d", summary.Games)
	}
	if len(summary.Corrupt) != 1 || summary.Corrupt[0] != "bad" {
		t.Errorf("Expected bad flagged corrupt, got %v", summary.Corrupt)
	}
}

func TestCountMoves(t *testing.T) {
	entries := []engine.ActionEntry{
		{Seq: 1, Kind: engine.KindStart},
		{Seq: 2, Kind: engine.KindMove},
		{Seq: 3, Kind: engine.KindMove},
		{Seq: 4, Kind: engine.KindEnd},
	}
	if got := countMoves(entries); got != 2 {
		t.Errorf("countMoves = %d, expected 2", got)
	}
}
