package engine

import "fmt"

// ReplayState is the session state reconstructed from an action log. Replay
// is pure: the same entries always produce the same terminal state.
type ReplayState struct {
	GameID   string
	Players  [2]string
	Board    *Board
	TurnSlot Slot
	Phase    Phase
	Result   *Result
}

// Replay applies entries in sequence order and returns the reconstructed
// state. Entries must carry typed payloads (see DecodePayload for logs read
// back from storage). It fails on any gap, ordering violation or entry that
// contradicts the rules embedded in the start payload.
func Replay(gameID string, entries []ActionEntry) (*ReplayState, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("replay %s: empty action log", gameID)
	}

	state := &ReplayState{GameID: gameID, Phase: PhasePending}

	for i, entry := range entries {
		if entry.Seq != i+1 {
			return nil, fmt.Errorf("replay %s: entry %d has seq %d", gameID, i, entry.Seq)
		}

		switch entry.Kind {
		case KindStart:
			if i != 0 {
				return nil, fmt.Errorf("replay %s: start entry at seq %d", gameID, entry.Seq)
			}
			p, ok := entry.Payload.(StartPayload)
			if !ok {
				return nil, fmt.Errorf("replay %s: start entry carries %T", gameID, entry.Payload)
			}
			if first := FirstMover(gameID); first != p.FirstSlot {
				return nil, fmt.Errorf("replay %s: logged first slot %d, derived %d", gameID, p.FirstSlot, first)
			}
			state.Players = p.Players
			state.Board = NewBoard(p.BoardSize)
			state.TurnSlot = p.FirstSlot
			state.Phase = PhaseActive

		case KindMove:
			if state.Phase != PhaseActive {
				return nil, fmt.Errorf("replay %s: move at seq %d outside active phase", gameID, entry.Seq)
			}
			p, ok := entry.Payload.(MovePayload)
			if !ok {
				return nil, fmt.Errorf("replay %s: move entry carries %T", gameID, entry.Payload)
			}
			if p.Slot != state.TurnSlot {
				return nil, fmt.Errorf("replay %s: move at seq %d by slot %d, expected %d", gameID, entry.Seq, p.Slot, state.TurnSlot)
			}
			if err := state.Board.Place(p.X, p.Y, p.Slot); err != nil {
				return nil, fmt.Errorf("replay %s: move at seq %d: %w", gameID, entry.Seq, err)
			}
			// Whether the move ended the game is decided by the entries that
			// follow; the turn transfer here is only observed if it didn't.
			state.TurnSlot = state.TurnSlot.Other()

		case KindTimeout:
			if state.Phase != PhaseActive {
				return nil, fmt.Errorf("replay %s: timeout at seq %d outside active phase", gameID, entry.Seq)
			}
			if _, ok := entry.Payload.(TimeoutPayload); !ok {
				return nil, fmt.Errorf("replay %s: timeout entry carries %T", gameID, entry.Payload)
			}
			state.TurnSlot = state.TurnSlot.Other()

		case KindEnd:
			p, ok := entry.Payload.(EndPayload)
			if !ok {
				return nil, fmt.Errorf("replay %s: end entry carries %T", gameID, entry.Payload)
			}
			state.Result = &Result{Winner: p.Winner, Reason: p.Reason}
			state.Phase = PhaseEnded
			if i != len(entries)-1 {
				return nil, fmt.Errorf("replay %s: entries after end at seq %d", gameID, entry.Seq)
			}

		default:
			return nil, fmt.Errorf("replay %s: unknown entry kind %q at seq %d", gameID, entry.Kind, entry.Seq)
		}
	}

	return state, nil
}
