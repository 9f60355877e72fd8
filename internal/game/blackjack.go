package game

import (
	"fmt"

	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/rng"
)

// BlackjackPhase is the state of the blackjack state machine.
type BlackjackPhase string

const (
	PhaseDealing    BlackjackPhase = "dealing"
	PhasePlayerTurn BlackjackPhase = "player_turn"
	PhaseDealerTurn BlackjackPhase = "dealer_turn"
	PhaseSettled    BlackjackPhase = "settled"
)

// BlackjackOutcome is the terminal result of a blackjack round.
type BlackjackOutcome string

const (
	OutcomePlayerBlackjack BlackjackOutcome = "player_blackjack"
	OutcomePlayerWin       BlackjackOutcome = "player_win"
	OutcomeDealerWin       BlackjackOutcome = "dealer_win"
	OutcomePush            BlackjackOutcome = "push"
)

// BlackjackRules holds the configured blackjack parameters.
// Lite rules: dealer stands on the threshold, no split, no insurance.
type BlackjackRules struct {
	WinMultiplier       float64
	BlackjackMultiplier float64
	DealerStand         int
	HouseEdge           float64 // fraction in [0,1)
}

// BlackjackResult is the settled outcome of a round.
type BlackjackResult struct {
	Outcome     BlackjackOutcome `json:"outcome"`
	PlayerValue int              `json:"player_value"`
	DealerValue int              `json:"dealer_value"`
	Payout      domain.Money     `json:"payout"`
}

// Win reports whether the player takes a payout beyond a push refund.
func (r *BlackjackResult) Win() bool {
	return r.Outcome == OutcomePlayerBlackjack || r.Outcome == OutcomePlayerWin
}

// Push reports a tie.
func (r *BlackjackResult) Push() bool {
	return r.Outcome == OutcomePush
}

// Blackjack is the turn-based card game state machine:
// Dealing -> PlayerTurn -> DealerTurn -> Settled.
type Blackjack struct {
	src    rng.Source
	rules  BlackjackRules
	bet    domain.Money
	deck   *Deck
	player Hand
	dealer Hand
	phase  BlackjackPhase
	result *BlackjackResult
}

// NewBlackjack creates a round with a freshly shuffled deck.
func NewBlackjack(src rng.Source, rules BlackjackRules, bet domain.Money) (*Blackjack, error) {
	deck, err := NewDeck(src)
	if err != nil {
		return nil, fmt.Errorf("failed to build deck: %w", err)
	}
	return &Blackjack{
		src:   src,
		rules: rules,
		bet:   bet,
		deck:  deck,
		phase: PhaseDealing,
	}, nil
}

func (b *Blackjack) Kind() Kind        { return KindBlackjack }
func (b *Blackjack) Bet() domain.Money { return b.bet }
func (b *Blackjack) Settled() bool     { return b.phase == PhaseSettled }

// Start deals two cards each, player first, alternating. A natural 21
// settles immediately; the dealer's hand stays as dealt.
func (b *Blackjack) Start() error {
	if b.phase != PhaseDealing {
		return ErrActionNotAllowed
	}

	for i := 0; i < 2; i++ {
		if err := b.dealTo(&b.player); err != nil {
			return err
		}
		if err := b.dealTo(&b.dealer); err != nil {
			return err
		}
	}

	if b.player.IsBlackjack() {
		b.settle()
		return nil
	}

	b.phase = PhasePlayerTurn
	return nil
}

// Hit deals one card to the player. Busting or reaching exactly 21 ends the
// player turn and runs the dealer automatically.
func (b *Blackjack) Hit() (Card, error) {
	if b.phase != PhasePlayerTurn || !b.player.CanHit() {
		return Card{}, ErrActionNotAllowed
	}

	card, err := b.deck.Deal()
	if err != nil {
		return Card{}, err
	}
	b.player.AddCard(card)

	if b.player.IsBust() || b.player.Value() == 21 {
		if err := b.finishPlayerTurn(); err != nil {
			return card, err
		}
	}

	return card, nil
}

// Stand ends the player turn and runs the dealer.
func (b *Blackjack) Stand() error {
	if b.phase != PhasePlayerTurn {
		return ErrActionNotAllowed
	}
	return b.finishPlayerTurn()
}

// finishPlayerTurn runs the dealer policy (hit until the stand threshold or
// bust) and settles the round. The dealer turn is never exposed as a manual
// action.
func (b *Blackjack) finishPlayerTurn() error {
	b.phase = PhaseDealerTurn

	for b.dealer.Value() < b.rules.DealerStand && !b.dealer.IsBust() {
		if err := b.dealTo(&b.dealer); err != nil {
			return err
		}
	}

	b.settle()
	return nil
}

// settle fixes the outcome and payout. Evaluated exactly once.
func (b *Blackjack) settle() {
	playerValue := b.player.Value()
	dealerValue := b.dealer.Value()
	edge := 1.0 - b.rules.HouseEdge

	var outcome BlackjackOutcome
	var payout domain.Money

	switch {
	case b.player.IsBust():
		outcome = OutcomeDealerWin
	case b.player.IsBlackjack() && !b.dealer.IsBlackjack():
		outcome = OutcomePlayerBlackjack
		payout = b.bet.MulFloat((1 + b.rules.BlackjackMultiplier) * edge)
	case b.dealer.IsBust():
		outcome = OutcomePlayerWin
		payout = b.bet.MulFloat((1 + b.rules.WinMultiplier) * edge)
	case playerValue > dealerValue:
		outcome = OutcomePlayerWin
		payout = b.bet.MulFloat((1 + b.rules.WinMultiplier) * edge)
	case dealerValue > playerValue:
		outcome = OutcomeDealerWin
	default:
		// Push returns the bet in full; no edge applied.
		outcome = OutcomePush
		payout = b.bet
	}

	b.result = &BlackjackResult{
		Outcome:     outcome,
		PlayerValue: playerValue,
		DealerValue: dealerValue,
		Payout:      payout,
	}
	b.phase = PhaseSettled
}

func (b *Blackjack) dealTo(hand *Hand) error {
	card, err := b.deck.Deal()
	if err != nil {
		return fmt.Errorf("failed to deal card: %w", err)
	}
	hand.AddCard(card)
	return nil
}

func (b *Blackjack) Payout() domain.Money {
	if b.result == nil {
		return 0
	}
	return b.result.Payout
}

// Phase returns the current state machine phase.
func (b *Blackjack) Phase() BlackjackPhase {
	return b.phase
}

// Result returns the settled outcome, or nil before settlement.
func (b *Blackjack) Result() *BlackjackResult {
	return b.result
}

// PlayerCards returns a copy of the player's hand.
func (b *Blackjack) PlayerCards() []Card {
	return b.player.Cards()
}

// DealerCards returns a copy of the dealer's hand.
func (b *Blackjack) DealerCards() []Card {
	return b.dealer.Cards()
}

// PlayerValue returns the player's current best total.
func (b *Blackjack) PlayerValue() int {
	return b.player.Value()
}

// DealerValue returns the dealer's current best total.
func (b *Blackjack) DealerValue() int {
	return b.dealer.Value()
}

// CanHit reports whether Hit is currently a legal action.
func (b *Blackjack) CanHit() bool {
	return b.phase == PhasePlayerTurn && b.player.CanHit()
}

// CanStand reports whether Stand is currently a legal action.
func (b *Blackjack) CanStand() bool {
	return b.phase == PhasePlayerTurn
}
