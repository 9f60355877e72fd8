package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyFromFloat(t *testing.T) {
	assert.Equal(t, Money(1000), MoneyFromFloat(10.0))
	assert.Equal(t, Money(1050), MoneyFromFloat(10.499999999))
	assert.Equal(t, Money(1), MoneyFromFloat(0.005))
	assert.Equal(t, Money(0), MoneyFromFloat(0))
}

func TestMoneyMulFloat(t *testing.T) {
	t.Run("RoundsToCent", func(t *testing.T) {
		// 10.00 * 2.0 * (1 - 0.05) = 19.00 exactly
		bet := MoneyFromFloat(10)
		assert.Equal(t, MoneyFromFloat(19), bet.MulFloat(2.0*(1-0.05)))
	})

	t.Run("NoDrift", func(t *testing.T) {
		// 0.10 * 3 must be exactly 0.30
		m := MoneyFromFloat(0.10).MulFloat(3)
		assert.Equal(t, Money(30), m)
	})
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1234.50", MoneyFromFloat(1234.5).String())
	assert.Equal(t, "0.00", Money(0).String())
}
