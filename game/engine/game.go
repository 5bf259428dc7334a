package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// Game is the authoritative state machine for one two-player session. All
// external inputs — Start, SubmitMove and the turn clock firing — are
// serialized behind g.mu, so exactly one of a racing move and a timeout ever
// takes effect.
type Game struct {
	mu sync.Mutex

	id      string
	players [2]Player
	rules   Rules

	board *Board
	log   *ActionLog
	clock *TurnClock

	turnSlot Slot
	// turnSeq increments on every turn transition. The clock callback carries
	// the value it was armed under, so a fire that lost the race against an
	// accepted move sees a stale turnSeq and no-ops.
	turnSeq uint64

	phase     Phase
	createdAt time.Time
	endedAt   time.Time
	result    *Result

	// notify delivers events produced by clock-driven transitions, the only
	// transitions with no synchronous caller to return them to. May be nil.
	notify func([]Event)
}

// NewGame creates a pending session for two distinct player identities.
// notify receives events from timeout-driven transitions; synchronous
// commands return their events to the caller instead.
func NewGame(id, player0, player1 string, rules Rules, notify func([]Event)) (*Game, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("game id cannot be empty")
	}
	if strings.TrimSpace(player0) == "" || strings.TrimSpace(player1) == "" {
		return nil, fmt.Errorf("player identities cannot be empty")
	}
	if player0 == player1 {
		return nil, fmt.Errorf("players must be distinct, got %q twice", player0)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	return &Game{
		id: id,
		players: [2]Player{
			{Identity: player0, Slot: Slot0},
			{Identity: player1, Slot: Slot1},
		},
		rules:     rules,
		board:     NewBoard(rules.BoardSize),
		log:       NewActionLog(),
		clock:     NewTurnClock(),
		phase:     PhasePending,
		createdAt: time.Now().UTC(),
		notify:    notify,
	}, nil
}

// FirstMover derives a game's first mover from its identity alone. The
// mapping is stable and entropy-free so repeated starts of the same session
// identity always agree.
func FirstMover(gameID string) Slot {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return Slot(h.Sum32() % 2)
}

// rngSeedHex derives the forward-compatibility seed recorded on the start
// entry. No base rule consumes it.
func rngSeedHex(gameID string, createdAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(gameID))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAt.UnixNano()))
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Start seeds determinism, appends the start entry, arms the clock for the
// first mover and transitions the session to active. Valid only from the
// pending phase.
func (g *Game) Start() ([]Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseEnded:
		return nil, errSessionAlreadyEnded()
	case PhaseActive:
		return nil, ErrAlreadyStarted
	}

	first := FirstMover(g.id)
	g.turnSlot = first
	g.log.Append(KindStart, StartPayload{
		Players:   [2]string{g.players[0].Identity, g.players[1].Identity},
		First:     g.players[first].Identity,
		FirstSlot: first,
		BoardSize: g.rules.BoardSize,
		RunLength: g.rules.RunLength,
	}, rngSeedHex(g.id, g.createdAt))
	g.phase = PhaseActive
	g.armClockLocked()

	return []Event{
		{Type: EventGameStarted, GameID: g.id, Payload: GameStartedPayload{
			Players: [2]string{g.players[0].Identity, g.players[1].Identity},
			First:   g.players[first].Identity,
		}},
		g.stateUpdateLocked(),
	}, nil
}

// SubmitMove validates and applies one placement for playerIdentity. On
// acceptance it returns the appended log entry plus the events to dispatch;
// on rejection it returns a *MoveError plus a move_rejected event and leaves
// all state untouched. Rejections are never logged.
func (g *Game) SubmitMove(playerIdentity string, x, y int, moveID string) (ActionEntry, []Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseActive {
		rej := errSessionAlreadyEnded()
		return ActionEntry{}, []Event{g.rejectionEvent(playerIdentity, x, y, rej)}, rej
	}

	mover := g.players[g.turnSlot]
	if playerIdentity != mover.Identity {
		rej := errNotYourTurn(mover.Identity)
		return ActionEntry{}, []Event{g.rejectionEvent(playerIdentity, x, y, rej)}, rej
	}

	if err := g.board.Place(x, y, mover.Slot); err != nil {
		rej, _ := AsMoveError(err)
		return ActionEntry{}, []Event{g.rejectionEvent(playerIdentity, x, y, rej)}, rej
	}

	// The move is committed from here on. Disarm before anything else so the
	// accepted move is the sole winner of the race against the clock.
	g.clock.Disarm()

	entry := g.log.Append(KindMove, MovePayload{
		Player: mover.Identity,
		Slot:   mover.Slot,
		X:      x,
		Y:      y,
		MoveID: moveID,
	}, "")

	events := []Event{{Type: EventMoveAccepted, GameID: g.id, Payload: MoveAcceptedPayload{Action: entry}}}

	switch {
	case g.board.HasRun(x, y, mover.Slot, g.rules.RunLength):
		winner := mover.Identity
		events = append(events, g.endLocked(&winner, ReasonWin)...)
	case g.board.IsFull():
		events = append(events, g.endLocked(nil, ReasonDraw)...)
	default:
		g.turnSlot = g.turnSlot.Other()
		g.armClockLocked()
		events = append(events, g.stateUpdateLocked())
	}

	return entry, events, nil
}

// armClockLocked arms the turn clock for the current mover. Caller holds
// g.mu.
func (g *Game) armClockLocked() {
	g.turnSeq++
	seq := g.turnSeq
	g.clock.Arm(g.rules.TurnTimeout(), func() {
		g.handleTimeout(seq)
	})
}

// handleTimeout is the clock's entry into the state machine. It re-validates
// phase and turn under the game lock: the session may have ended, or the
// turn may have advanced, between the timer firing and the lock being
// acquired.
func (g *Game) handleTimeout(seq uint64) {
	g.mu.Lock()
	if g.phase != PhaseActive || seq != g.turnSeq {
		g.mu.Unlock()
		return
	}

	timedOut := g.players[g.turnSlot]
	other := g.players[g.turnSlot.Other()]
	g.log.Append(KindTimeout, TimeoutPayload{
		Player: timedOut.Identity,
		Slot:   timedOut.Slot,
	}, "")
	winner := other.Identity
	events := g.endLocked(&winner, ReasonTimeout)
	notify := g.notify
	g.mu.Unlock()

	if notify != nil {
		notify(events)
	}
}

// endLocked performs the terminal transition once. Caller holds g.mu.
func (g *Game) endLocked(winner *string, reason Reason) []Event {
	if g.phase == PhaseEnded {
		return nil
	}
	g.clock.Disarm()
	g.result = &Result{Winner: winner, Reason: reason}
	g.log.Append(KindEnd, EndPayload{Winner: winner, Reason: reason}, "")
	g.phase = PhaseEnded
	g.endedAt = time.Now().UTC()

	return []Event{{Type: EventGameEnded, GameID: g.id, Payload: GameEndedPayload{Result: *g.result}}}
}

func (g *Game) stateUpdateLocked() Event {
	current := ""
	if g.phase == PhaseActive {
		current = g.players[g.turnSlot].Identity
	}
	return Event{Type: EventStateUpdate, GameID: g.id, Payload: StateUpdatePayload{
		Board:         g.board.Grid(),
		CurrentPlayer: current,
	}}
}

func (g *Game) rejectionEvent(playerIdentity string, x, y int, rej *MoveError) Event {
	return Event{Type: EventMoveRejected, GameID: g.id, Payload: MoveRejectedPayload{
		Player:   playerIdentity,
		Code:     rej.Code,
		Message:  rej.Message,
		Expected: rej.Expected,
		X:        x,
		Y:        y,
	}}
}

// ID returns the session identity.
func (g *Game) ID() string {
	return g.id
}

// Players returns both players in slot order.
func (g *Game) Players() [2]Player {
	return g.players
}

// Rules returns the session's rules.
func (g *Game) Rules() Rules {
	return g.rules
}

// Phase returns the current lifecycle phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// CurrentPlayer returns the identity whose move is currently legal, or ""
// when the game is not active.
func (g *Game) CurrentPlayer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return ""
	}
	return g.players[g.turnSlot].Identity
}

// Result returns a copy of the terminal result, or nil before the end
// transition.
func (g *Game) Result() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.result == nil {
		return nil
	}
	r := *g.result
	return &r
}

// Entries returns a snapshot of the action log.
func (g *Game) Entries() []ActionEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.log.Entries()
}

// ActionCount returns the number of logged actions.
func (g *Game) ActionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.log.Len()
}

// Grid returns a snapshot of the board.
func (g *Game) Grid() [][]Slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Grid()
}

// CreatedAt returns the session creation time.
func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

// EndedAt returns the end transition time, or the zero time while the game
// is still live.
func (g *Game) EndedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.endedAt
}
