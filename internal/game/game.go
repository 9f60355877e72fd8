// Package game provides the casino game engines: slots, dice and blackjack.
// Engines are pure state machines over an injected randomness source; money
// movement and session bookkeeping live in the casino package.
package game

import (
	"errors"

	"github.com/mejz/casino/internal/domain"
)

// ErrActionNotAllowed is returned when a game action is requested in a state
// that does not permit it, e.g. hitting after the player turn completed.
var ErrActionNotAllowed = errors.New("action not allowed in current game state")

// Kind tags the game variant of a session.
type Kind string

const (
	KindSlots     Kind = "slots"
	KindDice      Kind = "dice"
	KindBlackjack Kind = "blackjack"
)

// Game is the capability shared by all variants. A Game is constructed with
// its bet, started exactly once after the bet has been withdrawn, and exposes
// its payout only once settled.
type Game interface {
	Kind() Kind
	Bet() domain.Money

	// Start runs the game up to its first stable state. Slots and dice
	// settle immediately; blackjack deals and waits for player actions
	// unless the deal is a natural.
	Start() error

	// Settled reports whether a terminal result exists.
	Settled() bool

	// Payout returns the amount owed to the player. Zero until settled.
	Payout() domain.Money
}
