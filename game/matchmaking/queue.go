// Package matchmaking pairs waiting players into game sessions.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/service"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrAlreadyQueued  = errors.New("player already queued")
)

// Ticket tracks one player waiting for an opponent on a given preset.
type Ticket struct {
	ID     string `json:"id"`
	Player string `json:"player"`
	Preset string `json:"preset"`

	// GameID is set once the ticket is matched.
	GameID string `json:"game_id,omitempty"`
}

// JoinResult reports the outcome of a queue join: either an immediate match
// or a ticket to poll.
type JoinResult struct {
	Matched bool    `json:"matched"`
	GameID  string  `json:"game_id,omitempty"`
	Ticket  *Ticket `json:"ticket,omitempty"`
}

// Queue matches players pairwise per preset. The first player to ask for a
// preset waits; the second one triggers game creation and start.
type Queue struct {
	svc    service.GameService
	logger *zap.Logger

	mu      sync.Mutex
	waiting map[string]*Ticket // preset -> waiting ticket
	tickets map[string]*Ticket // ticket ID -> ticket, matched ones included
}

// NewQueue creates a matchmaking queue over the given game service.
func NewQueue(svc service.GameService, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		svc:     svc,
		logger:  logger,
		waiting: make(map[string]*Ticket),
		tickets: make(map[string]*Ticket),
	}
}

// Join enqueues a player for the given preset. When an opponent is already
// waiting, the game is created and started immediately and both tickets are
// marked matched. The waiting player learns the game ID through Status.
func (q *Queue) Join(ctx context.Context, player, preset string) (*JoinResult, error) {
	if player == "" {
		return nil, fmt.Errorf("player identity cannot be empty")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	opponent, found := q.waiting[preset]
	if found && opponent.Player == player {
		return nil, ErrAlreadyQueued
	}

	if !found {
		ticket := &Ticket{
			ID:     uuid.NewString(),
			Player: player,
			Preset: preset,
		}
		q.waiting[preset] = ticket
		q.tickets[ticket.ID] = ticket
		q.logger.Info("player queued",
			zap.String("ticket_id", ticket.ID),
			zap.String("player", player),
			zap.String("preset", preset))
		return &JoinResult{Matched: false, Ticket: ticket}, nil
	}

	// Opponent found: the waiting player moves first in creation order so
	// both sides see a consistent player0/player1 assignment.
	info, err := q.svc.CreateGame(ctx, opponent.Player, player, preset)
	if err != nil {
		return nil, fmt.Errorf("failed to create matched game: %w", err)
	}
	if _, err := q.svc.StartGame(ctx, info.ID); err != nil {
		return nil, fmt.Errorf("failed to start matched game: %w", err)
	}

	delete(q.waiting, preset)
	opponent.GameID = info.ID

	ticket := &Ticket{
		ID:     uuid.NewString(),
		Player: player,
		Preset: preset,
		GameID: info.ID,
	}
	q.tickets[ticket.ID] = ticket

	q.logger.Info("players matched",
		zap.String("game_id", info.ID),
		zap.String("player0", opponent.Player),
		zap.String("player1", player),
		zap.String("preset", preset))

	return &JoinResult{Matched: true, GameID: info.ID, Ticket: ticket}, nil
}

// Status returns the current state of a ticket.
func (q *Queue) Status(ticketID string) (*Ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ticket, exists := q.tickets[ticketID]
	if !exists {
		return nil, ErrTicketNotFound
	}
	t := *ticket
	return &t, nil
}

// Leave withdraws an unmatched ticket from the queue. Matched tickets stay
// resolvable through Status until Forget removes them.
func (q *Queue) Leave(ticketID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	ticket, exists := q.tickets[ticketID]
	if !exists {
		return ErrTicketNotFound
	}
	if ticket.GameID != "" {
		return fmt.Errorf("ticket %s already matched to game %s", ticketID, ticket.GameID)
	}

	if q.waiting[ticket.Preset] == ticket {
		delete(q.waiting, ticket.Preset)
	}
	delete(q.tickets, ticketID)
	return nil
}

// Forget drops a matched ticket once its holder has picked up the game ID.
func (q *Queue) Forget(ticketID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.tickets, ticketID)
}

// Waiting returns the number of unmatched tickets.
func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
