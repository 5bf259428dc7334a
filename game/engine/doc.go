// Package engine provides the core session engine for the k-in-a-row game.
//
// The engine package implements the authoritative game mechanics:
//   - Board placement, occupancy and run (win/draw) detection
//   - The append-only, strictly ordered action log and its replay contract
//   - The per-game turn clock that forfeits a turn on timeout
//   - The session state machine tying the three together
//
// Core Types:
//
// Game is the session state machine and the only entry point for external
// commands. Board holds the grid, ActionLog the ordered record of accepted
// state changes, and TurnClock the single pending timeout for the current
// mover. Rules parametrizes board size, run length and turn timeout.
//
// Concurrency:
//
// A Game serializes its three inputs (Start, SubmitMove and the turn clock
// firing) behind one mutex, so board, turn and log state are never touched
// by two handlers at once. Different games share nothing and run fully in
// parallel.
//
// Usage:
//
//	g, err := engine.NewGame("g1", "alice", "bob", engine.DefaultRules(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	events, err := g.Start()
//	result, err := g.SubmitMove("alice", 0, 0, "")
//
// Determinism:
//
// The first mover is derived from a stable hash of the game ID, and every
// accepted state change is appended to the action log with a gap-free
// sequence number. Replay reconstructs the terminal board and result from
// the log alone.
package engine
