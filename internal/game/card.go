package game

import (
	"strings"

	"github.com/mejz/casino/internal/rng"
)

// Suit of a playing card.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Symbol returns the unicode suit symbol.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "♠"
	}
}

// Rank of a playing card with its canonical blackjack value.
// Ace counts as 11 here; Hand.Value softens aces to 1 as needed.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankValues = map[Rank]int{
	Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
}

// Card is a playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Value returns the nominal card value (Ace=11, face cards=10).
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

func (c Card) String() string {
	return string(c.Rank) + c.Suit.Symbol()
}

// Hand is an ordered sequence of cards.
type Hand struct {
	cards []Card
}

// AddCard appends a card to the hand.
func (h *Hand) AddCard(card Card) {
	h.cards = append(h.cards, card)
}

// Cards returns a copy of the cards in deal order.
func (h *Hand) Cards() []Card {
	return append([]Card(nil), h.cards...)
}

// Count returns the number of cards in the hand.
func (h *Hand) Count() int {
	return len(h.cards)
}

// Value computes the best hand total. Aces start at 11 and are softened to 1
// one at a time while the total busts. Which ace is softened is irrelevant to
// the numeric result, so no per-card flag is kept.
func (h *Hand) Value() int {
	value := 0
	aces := 0
	for _, c := range h.cards {
		value += c.Value()
		if c.IsAce() {
			aces++
		}
	}

	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}

	return value
}

// IsBust reports whether the hand value exceeds 21.
func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack reports a natural: exactly two cards totaling 21.
func (h *Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.Value() == 21
}

// CanHit reports whether another card may be drawn.
func (h *Hand) CanHit() bool {
	return h.Value() < 21
}

func (h *Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Deck is a 52-card deck. Dealing from an exhausted deck rebuilds and
// reshuffles; no discard tracking is needed since a reshuffle is a fresh
// uniform permutation.
type Deck struct {
	src   rng.Source
	cards []Card
}

// NewDeck builds and shuffles a full deck.
func NewDeck(src rng.Source) (*Deck, error) {
	d := &Deck{src: src}
	if err := d.reset(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deck) reset() error {
	d.cards = d.cards[:0]
	for _, suit := range suits {
		for _, rank := range ranks {
			d.cards = append(d.cards, Card{Suit: suit, Rank: rank})
		}
	}
	return d.Shuffle()
}

// Shuffle performs a Fisher-Yates shuffle of the remaining cards.
func (d *Deck) Shuffle() error {
	return rng.Shuffle(d.src, len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card, reshuffling a fresh deck first if
// this one is exhausted.
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		if err := d.reset(); err != nil {
			return Card{}, err
		}
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
