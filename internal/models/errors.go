package models

import "errors"

// Shared error kinds for the engine's operations. Callers match them
// with errors.Is; each operation wraps them with context.
var (
	// ErrNotFound means a card, note, deck, or tag id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means an operation's precondition on card state
	// was violated, e.g. repositioning a card that is not New.
	ErrInvalidState = errors.New("invalid card state")

	// ErrInvalidArgument means a caller-supplied value was rejected,
	// e.g. a timed pause with a past resume date.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransaction means the store rejected or rolled back the
	// operation's transaction.
	ErrTransaction = errors.New("transaction failed")
)
