package game

import "errors"

// User-action errors. Surfaced to the acting player only; state is left
// unchanged and the player may retry with corrected input.
var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidAction  = errors.New("invalid action")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrCardNotOnField = errors.New("card not on field")
	ErrInvalidChoice  = errors.New("chosen card is not a match option")
	ErrCannotStop     = errors.New("score below go/stop threshold")
	ErrDeckEmpty      = errors.New("deck is empty")
)

// Invariant errors. These indicate a collaborator bug (stale room mapping,
// state desync); the round is unrecoverable and the room must be torn down.
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidPhase       = errors.New("operation not valid in current phase")
	ErrNoTurnContext      = errors.New("no pending choice context")
	ErrInvalidTransition  = errors.New("illegal phase transition")
	ErrInvalidReconntoken = errors.New("invalid reconnect token")
)

// IsUserError reports whether err is a user-action error that the player
// can correct, as opposed to an invariant violation.
func IsUserError(err error) bool {
	switch {
	case errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrCardNotInHand),
		errors.Is(err, ErrCardNotOnField),
		errors.Is(err, ErrInvalidChoice),
		errors.Is(err, ErrCannotStop),
		errors.Is(err, ErrDeckEmpty):
		return true
	}
	return false
}

// ErrorCode returns the wire code broadcast to clients for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, ErrInvalidAction):
		return "INVALID_ACTION"
	case errors.Is(err, ErrCardNotInHand):
		return "CARD_NOT_IN_HAND"
	case errors.Is(err, ErrCardNotOnField):
		return "CARD_NOT_ON_FIELD"
	case errors.Is(err, ErrInvalidChoice):
		return "INVALID_CHOICE"
	case errors.Is(err, ErrCannotStop):
		return "CANNOT_STOP"
	case errors.Is(err, ErrDeckEmpty):
		return "DECK_EMPTY"
	case errors.Is(err, ErrPlayerNotFound):
		return "PLAYER_NOT_FOUND"
	case errors.Is(err, ErrInvalidPhase):
		return "INVALID_PHASE"
	case errors.Is(err, ErrNoTurnContext):
		return "NO_TURN_CONTEXT"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrInvalidReconntoken):
		return "INVALID_TOKEN"
	default:
		return "INTERNAL"
	}
}
