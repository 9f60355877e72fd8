// Package domain contains core domain types shared across the casino engine.
package domain

import (
	"fmt"
	"math"
)

// Money represents a monetary amount in minor units (cents).
// All payout arithmetic rounds back to minor units so repeated
// multiplier/house-edge calculations never accumulate float drift.
type Money int64

// MoneyFromFloat converts a major-unit amount (e.g. config values) to Money,
// rounding to the nearest cent.
func MoneyFromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Float64 returns the amount in major units.
func (m Money) Float64() float64 {
	return float64(m) / 100.0
}

// MulFloat scales the amount by a factor and rounds to the nearest cent.
// Used for multiplier and house-edge payout math.
func (m Money) MulFloat(factor float64) Money {
	return Money(math.Round(float64(m) * factor))
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// String formats the amount in major units with two decimals, no currency
// symbol. Display formatting with a symbol is the ledger's job.
func (m Money) String() string {
	return fmt.Sprintf("%.2f", m.Float64())
}
