package game

import "errors"

var (
	// ErrInvalidState is returned when an action is attempted in the wrong round state,
	// e.g. hit before the round has started.
	ErrInvalidState = errors.New("invalid round state")

	// ErrIllegalAction is returned when an action breaks a table rule,
	// e.g. split without a pair or insurance without a dealer Ace.
	ErrIllegalAction = errors.New("illegal action")

	// ErrInsufficientFunds is returned when a wager exceeds the player's balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrShoeExhausted means the shoe ran out mid-round. A full shoe always covers a
	// single round, so this is an internal consistency fault rather than a user error.
	ErrShoeExhausted = errors.New("shoe exhausted")
)
