package blackjack

import "errors"

// Kind classifies a rejected request. Every user-facing failure maps to
// exactly one kind; none of them leave state partially mutated.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindCapacity
	KindConflict
	KindResourceExhausted
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindValidation:        "validation",
	KindNotFound:          "not_found",
	KindAuthorization:     "authorization",
	KindCapacity:          "capacity",
	KindConflict:          "conflict",
	KindResourceExhausted: "resource_exhausted",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a classified sentinel. Compare with errors.Is against the
// package-level values; wrap with fmt.Errorf("%w: ...") to add detail.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// NewError creates a classified sentinel for packages layered on top of the engine.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrEmptyDeck           = NewError(KindResourceExhausted, "deck is empty")
	ErrInsufficientPlayers = NewError(KindValidation, "not enough players to start")
	ErrNotYourTurn         = NewError(KindAuthorization, "not your turn")
	ErrNotHost             = NewError(KindAuthorization, "only the host can start the game")
	ErrRoundNotActive      = NewError(KindValidation, "no round in progress")
	ErrGameInProgress      = NewError(KindConflict, "game already in progress")
	ErrGameOver            = NewError(KindConflict, "game is over")
	ErrUnknownAction       = NewError(KindValidation, "unknown action")
	ErrPlayerNotFound      = NewError(KindNotFound, "player not found")
	ErrDuplicatePlayer     = NewError(KindConflict, "player already in game")
)

// InvalidStateError reports a call made in the wrong phase. It indicates a
// sequencing bug in the caller rather than a bad client request.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
