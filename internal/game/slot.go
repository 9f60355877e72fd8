package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/rng"
)

// ErrNoSymbols is returned when a slot machine is configured without symbols.
// This is fatal at startup, never recoverable at spin time.
var ErrNoSymbols = errors.New("no slot symbols configured")

// Symbol is one entry of the slot machine's weight table.
type Symbol struct {
	Name       string  `json:"name"`
	Weight     int64   `json:"weight"`
	Multiplier float64 `json:"multiplier"`
	Display    string  `json:"display"`
}

// SlotResult holds the three drawn symbols and the computed payout.
type SlotResult struct {
	Symbols [3]Symbol    `json:"symbols"`
	Payout  domain.Money `json:"payout"`
	Win     bool         `json:"win"`
}

// Machine is the slot engine: an immutable weighted symbol table plus the
// configured house edge. One Machine serves all slot games.
type Machine struct {
	src       rng.Source
	symbols   []Symbol
	weights   []int64
	houseEdge float64
}

// NewMachine validates the symbol table and builds the machine.
// houseEdge is a fraction in [0,1).
func NewMachine(src rng.Source, symbols []Symbol, houseEdge float64) (*Machine, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	weights := make([]int64, len(symbols))
	var total int64
	for i, s := range symbols {
		if s.Weight <= 0 {
			return nil, fmt.Errorf("symbol %q has non-positive weight %d", s.Name, s.Weight)
		}
		if s.Multiplier < 0 {
			return nil, fmt.Errorf("symbol %q has negative multiplier %f", s.Name, s.Multiplier)
		}
		weights[i] = s.Weight
		total += s.Weight
	}
	if total <= 0 {
		return nil, ErrNoSymbols
	}
	if houseEdge < 0 || houseEdge >= 1 {
		return nil, fmt.Errorf("house edge %f out of range [0,1)", houseEdge)
	}

	return &Machine{
		src:       src,
		symbols:   append([]Symbol(nil), symbols...),
		weights:   weights,
		houseEdge: houseEdge,
	}, nil
}

// Spin draws three symbols independently from the weight table and computes
// the payout. All three must match to win; the house edge reduces the payout.
func (m *Machine) Spin(bet domain.Money) (*SlotResult, error) {
	var reels [3]Symbol
	for i := range reels {
		idx, err := rng.WeightedIndex(m.src, m.weights)
		if err != nil {
			return nil, fmt.Errorf("failed to draw reel %d: %w", i+1, err)
		}
		reels[i] = m.symbols[idx]
	}

	payout := m.calculatePayout(reels, bet)

	return &SlotResult{
		Symbols: reels,
		Payout:  payout,
		Win:     payout > 0,
	}, nil
}

func (m *Machine) calculatePayout(reels [3]Symbol, bet domain.Money) domain.Money {
	if reels[0].Name != reels[1].Name || reels[1].Name != reels[2].Name {
		return 0
	}

	payout := bet.MulFloat(reels[0].Multiplier * (1.0 - m.houseEdge))
	if payout < 0 {
		return 0
	}
	return payout
}

// Symbols returns a copy of the configured symbol table.
func (m *Machine) Symbols() []Symbol {
	return append([]Symbol(nil), m.symbols...)
}

// RTP returns the theoretical long-run return-to-player fraction:
// sum over symbols of (weight/total)^3 * multiplier, scaled by the edge.
// Diagnostic only; never consulted at spin time.
func (m *Machine) RTP() float64 {
	var total int64
	for _, w := range m.weights {
		total += w
	}

	var expected float64
	for _, s := range m.symbols {
		p := float64(s.Weight) / float64(total)
		expected += math.Pow(p, 3) * s.Multiplier
	}

	return expected * (1.0 - m.houseEdge)
}

// Slot is a single slot game round bound to a bet.
type Slot struct {
	machine *Machine
	bet     domain.Money
	result  *SlotResult
}

// NewSlot creates a slot round on the shared machine.
func NewSlot(machine *Machine, bet domain.Money) *Slot {
	return &Slot{machine: machine, bet: bet}
}

func (s *Slot) Kind() Kind          { return KindSlots }
func (s *Slot) Bet() domain.Money   { return s.bet }
func (s *Slot) Settled() bool       { return s.result != nil }
func (s *Slot) Result() *SlotResult { return s.result }

// Start spins the reels. The outcome is fixed immediately; any animation is
// presentation-side and does not touch the engine.
func (s *Slot) Start() error {
	result, err := s.machine.Spin(s.bet)
	if err != nil {
		return err
	}
	s.result = result
	return nil
}

func (s *Slot) Payout() domain.Money {
	if s.result == nil {
		return 0
	}
	return s.result.Payout
}
