package scoreboard

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLocked:
		return "locked"
	default:
		return "internal"
	}
}

// Error carries a user-facing Message; Err is the cause, if any, and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrTeamNotFound  = &Error{Kind: KindNotFound, Message: "Team not found"}
	ErrNoActiveGame  = &Error{Kind: KindNotFound, Message: "No active game"}
	ErrDuplicateName = &Error{Kind: KindConflict, Message: "Team name already exists. Please choose a different name."}
	ErrAlreadyJoined = &Error{Kind: KindConflict, Message: "This connection has already joined as a team"}
	ErrPlayersLocked = &Error{Kind: KindLocked, Message: "Players are locked. Scores can only be changed by the admin."}
	ErrTeamLocked    = &Error{Kind: KindLocked, Message: "This team is locked"}
)

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing text for err, or fallback when err is not a known, non-internal error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return fallback
}
