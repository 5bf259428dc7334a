package engine

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable rejection class. Every code is locally
// recoverable: a rejected command never mutates game state.
type Code string

const (
	CodeNotYourTurn         Code = "not_your_turn"
	CodeOutOfBounds         Code = "out_of_bounds"
	CodeCellOccupied        Code = "cell_occupied"
	CodeSessionAlreadyEnded Code = "session_already_ended"
	CodeGameNotFound        Code = "game_not_found"
)

// ErrAlreadyStarted is returned by Start when the game left the pending
// phase already.
var ErrAlreadyStarted = errors.New("game already started")

// MoveError is the structured rejection returned for an invalid command.
// Expected names the identity whose turn it is when the code is
// not_your_turn.
type MoveError struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errNotYourTurn(expected string) *MoveError {
	return &MoveError{
		Code:     CodeNotYourTurn,
		Message:  fmt.Sprintf("it is %s's turn", expected),
		Expected: expected,
	}
}

func errOutOfBounds(x, y, size int) *MoveError {
	return &MoveError{
		Code:    CodeOutOfBounds,
		Message: fmt.Sprintf("(%d,%d) is outside the %dx%d board", x, y, size, size),
	}
}

func errCellOccupied(x, y int) *MoveError {
	return &MoveError{
		Code:    CodeCellOccupied,
		Message: fmt.Sprintf("cell (%d,%d) is already occupied", x, y),
	}
}

func errSessionAlreadyEnded() *MoveError {
	return &MoveError{
		Code:    CodeSessionAlreadyEnded,
		Message: "the session has already ended",
	}
}

// AsMoveError unwraps err into a *MoveError if it is one.
func AsMoveError(err error) (*MoveError, bool) {
	var me *MoveError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
