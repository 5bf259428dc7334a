package engine

// EventType names an outbound event produced by a state transition.
type EventType string

const (
	EventGameStarted  EventType = "game_started"
	EventStateUpdate  EventType = "state_update"
	EventMoveAccepted EventType = "move_accepted"
	EventMoveRejected EventType = "move_rejected"
	EventGameEnded    EventType = "game_ended"
)

// Event is a typed outbound message. Transitions return event values rather
// than broadcasting them; a dispatcher owns delivery to subscribers.
type Event struct {
	Type    EventType `json:"type"`
	GameID  string    `json:"game_id"`
	Payload any       `json:"payload"`
}

// GameStartedPayload announces the session going active.
type GameStartedPayload struct {
	Players [2]string `json:"players"`
	First   string    `json:"first"`
}

// StateUpdatePayload carries the board snapshot and the legal mover.
type StateUpdatePayload struct {
	Board         [][]Slot `json:"board"`
	CurrentPlayer string   `json:"current_player"`
}

// MoveAcceptedPayload carries the log entry of an accepted move.
type MoveAcceptedPayload struct {
	Action ActionEntry `json:"action"`
}

// MoveRejectedPayload surfaces a rejection to transport and telemetry
// subscribers. Rejections are never written to the action log.
type MoveRejectedPayload struct {
	Player   string `json:"player"`
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// GameEndedPayload carries the terminal result.
type GameEndedPayload struct {
	Result Result `json:"result"`
}
