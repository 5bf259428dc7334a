package engine

import (
	"sync"
	"testing"
	"time"
)

func testRules() Rules {
	return Rules{
		Name:          "test",
		BoardSize:     3,
		RunLength:     3,
		TurnTimeoutMs: 30000,
	}
}

// startedGame creates and starts a 3x3 game, returning it along with the
// first and second movers in play order.
func startedGame(t *testing.T, id string) (*Game, string, string) {
	t.Helper()

	g, err := NewGame(id, "alice", "bob", testRules(), nil)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first := g.CurrentPlayer()
	second := "alice"
	if first == "alice" {
		second = "bob"
	}
	return g, first, second
}

func TestNewGame_Validation(t *testing.T) {
	if _, err := NewGame("", "alice", "bob", testRules(), nil); err == nil {
		t.Error("Expected error for empty game ID")
	}
	if _, err := NewGame("g1", "alice", "alice", testRules(), nil); err == nil {
		t.Error("Expected error for identical identities")
	}
	bad := testRules()
	bad.RunLength = 99
	if _, err := NewGame("g1", "alice", "bob", bad, nil); err == nil {
		t.Error("Expected error for run length exceeding board size")
	}
}

func TestGame_FirstMoverIsDeterministic(t *testing.T) {
	for _, id := range []string{"game-a", "game-b", "5f1c", "5f1d"} {
		g1, first1, _ := startedGame(t, id)
		g2, first2, _ := startedGame(t, id)

		if first1 != first2 {
			t.Errorf("Game %q: first mover differs across starts: %s vs %s", id, first1, first2)
		}
		if want := g1.Players()[FirstMover(id)].Identity; first1 != want {
			t.Errorf("Game %q: first mover %s does not match FirstMover slot %s", id, first1, want)
		}
		_ = g2
	}
}

func TestGame_Start_OnlyFromPending(t *testing.T) {
	g, _, _ := startedGame(t, "g-start")

	if _, err := g.Start(); err != ErrAlreadyStarted {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}
}

func TestGame_Start_EmitsStartEntryAndEvents(t *testing.T) {
	g, err := NewGame("g-seed", "alice", "bob", testRules(), nil)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	events, err := g.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	entries := g.Entries()
	if len(entries) != 1 || entries[0].Kind != KindStart {
		t.Fatalf("Expected a single start entry, got %+v", entries)
	}
	if entries[0].RngSeed == "" {
		t.Error("Start entry missing rng seed")
	}
	if len(entries[0].RngSeed) != 32 {
		t.Errorf("Expected 32 hex chars of rng seed, got %d", len(entries[0].RngSeed))
	}

	if len(events) != 2 || events[0].Type != EventGameStarted || events[1].Type != EventStateUpdate {
		t.Errorf("Unexpected start events: %+v", events)
	}
}

func TestGame_WinScenario(t *testing.T) {
	g, first, second := startedGame(t, "g-win")

	// First mover takes column x=0, second mover fills column x=1.
	moves := []struct {
		player string
		x, y   int
	}{
		{first, 0, 0},
		{second, 1, 0},
		{first, 0, 1},
		{second, 1, 1},
		{first, 0, 2},
	}

	var lastEvents []Event
	for _, m := range moves {
		_, events, err := g.SubmitMove(m.player, m.x, m.y, "")
		if err != nil {
			t.Fatalf("Move by %s at (%d,%d) rejected: %v", m.player, m.x, m.y, err)
		}
		lastEvents = events
	}

	if g.Phase() != PhaseEnded {
		t.Fatalf("Expected ended phase, got %s", g.Phase())
	}
	result := g.Result()
	if result == nil || result.Winner == nil || *result.Winner != first || result.Reason != ReasonWin {
		t.Fatalf("Expected win for %s, got %+v", first, result)
	}

	entries := g.Entries()
	if len(entries) != 7 {
		t.Fatalf("Expected 7 entries (start + 5 moves + end), got %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != i+1 {
			t.Errorf("Entry %d has seq %d", i, e.Seq)
		}
	}
	end, ok := entries[6].Payload.(EndPayload)
	if !ok || end.Winner == nil || *end.Winner != first || end.Reason != ReasonWin {
		t.Errorf("Unexpected end payload: %+v", entries[6].Payload)
	}

	// The winning move's events must include the end transition.
	var sawEnd bool
	for _, e := range lastEvents {
		if e.Type == EventGameEnded {
			sawEnd = true
		}
	}
	if !sawEnd {
		t.Error("Winning move did not emit game_ended")
	}
}

func TestGame_DrawScenario(t *testing.T) {
	g, first, second := startedGame(t, "g-draw")

	// Ends with the board full and no run:
	//   X O X
	//   O O X
	//   X X O
	moves := []struct {
		player string
		x, y   int
	}{
		{first, 0, 0},
		{second, 1, 0},
		{first, 2, 0},
		{second, 0, 1},
		{first, 2, 1},
		{second, 1, 1},
		{first, 0, 2},
		{second, 2, 2},
		{first, 1, 2},
	}

	for _, m := range moves {
		if _, _, err := g.SubmitMove(m.player, m.x, m.y, ""); err != nil {
			t.Fatalf("Move by %s at (%d,%d) rejected: %v", m.player, m.x, m.y, err)
		}
	}

	result := g.Result()
	if result == nil || result.Winner != nil || result.Reason != ReasonDraw {
		t.Fatalf("Expected draw, got %+v", result)
	}
	if got := g.ActionCount(); got != 11 {
		t.Errorf("Expected 11 entries (start + 9 moves + end), got %d", got)
	}
}

func TestGame_NotYourTurn_DoesNotMutate(t *testing.T) {
	g, _, second := startedGame(t, "g-turn")

	before := g.ActionCount()
	_, events, err := g.SubmitMove(second, 0, 0, "")
	if err == nil {
		t.Fatal("Expected rejection for out-of-turn move")
	}
	me, ok := AsMoveError(err)
	if !ok || me.Code != CodeNotYourTurn {
		t.Fatalf("Expected not_your_turn, got %v", err)
	}
	if me.Expected == "" || me.Expected == second {
		t.Errorf("Rejection should name the expected mover, got %q", me.Expected)
	}

	if g.ActionCount() != before {
		t.Error("Rejected move appended to the log")
	}
	if g.Grid()[0][0] != SlotNone {
		t.Error("Rejected move mutated the board")
	}
	if len(events) != 1 || events[0].Type != EventMoveRejected {
		t.Errorf("Expected a single move_rejected event, got %+v", events)
	}
}

func TestGame_OutOfBoundsMoves(t *testing.T) {
	g, first, _ := startedGame(t, "g-oob")

	for _, c := range [][2]int{{3, 0}, {0, -1}} {
		_, _, err := g.SubmitMove(first, c[0], c[1], "")
		me, ok := AsMoveError(err)
		if !ok || me.Code != CodeOutOfBounds {
			t.Errorf("Expected out_of_bounds at (%d,%d), got %v", c[0], c[1], err)
		}
	}
	if g.ActionCount() != 1 {
		t.Errorf("Rejected moves changed the log, count=%d", g.ActionCount())
	}
}

func TestGame_CommandsAfterEnd(t *testing.T) {
	g, first, second := startedGame(t, "g-ended")

	moves := []struct {
		player string
		x, y   int
	}{
		{first, 0, 0}, {second, 1, 0},
		{first, 0, 1}, {second, 1, 1},
		{first, 0, 2},
	}
	for _, m := range moves {
		if _, _, err := g.SubmitMove(m.player, m.x, m.y, ""); err != nil {
			t.Fatalf("Setup move rejected: %v", err)
		}
	}

	before := g.ActionCount()
	_, _, err := g.SubmitMove(second, 2, 2, "")
	me, ok := AsMoveError(err)
	if !ok || me.Code != CodeSessionAlreadyEnded {
		t.Fatalf("Expected session_already_ended, got %v", err)
	}
	if g.ActionCount() != before {
		t.Error("Command after end mutated the log")
	}

	if _, err := g.Start(); err == nil {
		t.Error("Start after end must be rejected")
	}
}

func TestGame_TimeoutForfeitsTurn(t *testing.T) {
	events := make(chan []Event, 4)
	rules := testRules()
	rules.TurnTimeoutMs = 600

	g, err := NewGame("g-timeout", "alice", "bob", rules, func(evts []Event) {
		events <- evts
	})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first := g.CurrentPlayer()

	select {
	case evts := <-events:
		var sawEnd bool
		for _, e := range evts {
			if e.Type == EventGameEnded {
				sawEnd = true
			}
		}
		if !sawEnd {
			t.Errorf("Timeout notification missing game_ended: %+v", evts)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout never fired")
	}

	result := g.Result()
	if result == nil || result.Reason != ReasonTimeout {
		t.Fatalf("Expected timeout result, got %+v", result)
	}
	if result.Winner == nil || *result.Winner == first {
		t.Errorf("Timed-out player won: %+v", result)
	}

	entries := g.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected start+timeout+end, got %d entries", len(entries))
	}
	to, ok := entries[1].Payload.(TimeoutPayload)
	if !ok || to.Player != first {
		t.Errorf("Timeout entry should name %s, got %+v", first, entries[1].Payload)
	}
}

func TestGame_StaleTimerAfterAcceptedMove(t *testing.T) {
	rules := testRules()
	rules.TurnTimeoutMs = 2000

	g, err := NewGame("g-stale", "alice", "bob", rules, nil)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first := g.CurrentPlayer()

	// Accept a move shortly before the original deadline, then look just
	// after it: the disarmed timer must not have forfeited anything, and the
	// re-armed timer for the next mover has not expired yet.
	time.Sleep(1000 * time.Millisecond)
	if _, _, err := g.SubmitMove(first, 0, 0, ""); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}

	time.Sleep(1600 * time.Millisecond)

	if g.Phase() != PhaseActive {
		t.Fatalf("Stale timer ended the game: %+v", g.Result())
	}
	for _, e := range g.Entries() {
		if e.Kind == KindTimeout {
			t.Fatal("Stale timer appended a timeout entry")
		}
	}
	if got := g.CurrentPlayer(); got == first {
		t.Errorf("Turn did not transfer after the accepted move")
	}
}

func TestGame_ConcurrentMovesOneWinner(t *testing.T) {
	g, first, _ := startedGame(t, "g-race")

	const contenders = 8
	var wg sync.WaitGroup
	accepted := make(chan ActionEntry, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if entry, _, err := g.SubmitMove(first, 1, 1, ""); err == nil {
				accepted <- entry
			}
		}()
	}
	wg.Wait()
	close(accepted)

	var wins int
	for range accepted {
		wins++
	}
	if wins != 1 {
		t.Errorf("Expected exactly one accepted move for the contested cell, got %d", wins)
	}
	if g.ActionCount() != 2 {
		t.Errorf("Expected start + one move in the log, got %d", g.ActionCount())
	}
}
