package game

import (
	"fmt"

	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/rng"
)

// DiceRules holds the configured dice game parameters.
type DiceRules struct {
	WinMultiplier float64
	HouseEdge     float64 // fraction in [0,1)
}

// DiceResult is the outcome of a dice round.
type DiceResult struct {
	PlayerRoll int          `json:"player_roll"`
	DealerRoll int          `json:"dealer_roll"`
	Win        bool         `json:"win"`
	Payout     domain.Money `json:"payout"`
}

// Tie reports whether both rolls were equal. Ties favor the house.
func (r *DiceResult) Tie() bool {
	return r.PlayerRoll == r.DealerRoll
}

// Dice is a single high-roll round: player and dealer each roll one die,
// the strictly higher roll wins.
type Dice struct {
	src    rng.Source
	rules  DiceRules
	bet    domain.Money
	result *DiceResult
}

// NewDice creates a dice round.
func NewDice(src rng.Source, rules DiceRules, bet domain.Money) *Dice {
	return &Dice{src: src, rules: rules, bet: bet}
}

func (d *Dice) Kind() Kind          { return KindDice }
func (d *Dice) Bet() domain.Money   { return d.bet }
func (d *Dice) Settled() bool       { return d.result != nil }
func (d *Dice) Result() *DiceResult { return d.result }

// Start rolls both dice and settles the round.
func (d *Dice) Start() error {
	playerRoll, err := d.rollDie()
	if err != nil {
		return err
	}
	dealerRoll, err := d.rollDie()
	if err != nil {
		return err
	}

	win := playerRoll > dealerRoll

	var payout domain.Money
	if win {
		payout = d.bet.MulFloat(d.rules.WinMultiplier * (1.0 - d.rules.HouseEdge))
	}

	d.result = &DiceResult{
		PlayerRoll: playerRoll,
		DealerRoll: dealerRoll,
		Win:        win,
		Payout:     payout,
	}
	return nil
}

func (d *Dice) Payout() domain.Money {
	if d.result == nil {
		return 0
	}
	return d.result.Payout
}

// rollDie returns a uniform value in [1,6].
func (d *Dice) rollDie() (int, error) {
	n, err := d.src.Int(6)
	if err != nil {
		return 0, fmt.Errorf("failed to roll die: %w", err)
	}
	return int(n) + 1, nil
}
