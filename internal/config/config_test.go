package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Casino.CooldownSeconds)
	assert.Equal(t, 10.0, cfg.Casino.MinBet)
	assert.Equal(t, 10000.0, cfg.Casino.MaxBet)
	assert.Equal(t, 5.0, cfg.Slots.HouseEdgePercent)
	assert.Equal(t, 2.0, cfg.Dice.WinMultiplier)
	assert.False(t, cfg.Blackjack.Enabled)
	assert.Equal(t, 17, cfg.Blackjack.DealerStand)
	assert.NotEmpty(t, cfg.Slots.Symbols)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
casino:
  cooldown_seconds: 30
  min_bet: 5
  max_bet: 500
blackjack:
  enabled: true
  dealer_stand: 16
`), 0o644))

	t.Setenv("CASINO_MIN_BET", "25")
	t.Setenv("CASINO_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Casino.CooldownSeconds, "from file")
	assert.Equal(t, 25.0, cfg.Casino.MinBet, "env beats file")
	assert.Equal(t, 500.0, cfg.Casino.MaxBet)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Blackjack.Enabled)
	assert.Equal(t, 16, cfg.Blackjack.DealerStand)
	// Untouched sections keep their defaults.
	assert.Equal(t, 2.0, cfg.Dice.WinMultiplier)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Casino.CooldownSeconds)
}

func TestValidate(t *testing.T) {
	t.Run("NoSymbolsIsFatal", func(t *testing.T) {
		cfg := Default()
		cfg.Slots.Symbols = nil
		assert.ErrorIs(t, cfg.Validate(), ErrNoSymbols)
	})

	t.Run("NonPositiveWeight", func(t *testing.T) {
		cfg := Default()
		cfg.Slots.Symbols[0].Weight = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("InvertedBetBounds", func(t *testing.T) {
		cfg := Default()
		cfg.Casino.MinBet = 100
		cfg.Casino.MaxBet = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("EdgeOutOfRange", func(t *testing.T) {
		cfg := Default()
		cfg.Dice.HouseEdgePercent = 100
		assert.Error(t, cfg.Validate())
	})
}

func TestEdgeFraction(t *testing.T) {
	assert.Equal(t, 0.05, EdgeFraction(5.0))
	assert.Equal(t, 0.0, EdgeFraction(0))
}
