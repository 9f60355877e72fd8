// Package config provides configuration management for the casino service.
// Values come from an optional YAML file, overridden by environment
// variables; defaults below apply when neither is set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrNoSymbols = errors.New("no slot symbols configured")

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all configuration for the casino service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Economy   EconomyConfig   `yaml:"economy"`
	Casino    CasinoConfig    `yaml:"casino"`
	Slots     SlotsConfig     `yaml:"slots"`
	Dice      DiceConfig      `yaml:"dice"`
	Blackjack BlackjackConfig `yaml:"blackjack"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string   `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects and configures the ledger backend.
type DatabaseConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret   string   `yaml:"jwt_secret"`
	TokenExpiry Duration `yaml:"token_expiry"`
}

// EconomyConfig holds currency display settings.
type EconomyConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
}

// CasinoConfig holds the global table rules.
type CasinoConfig struct {
	CooldownSeconds   int     `yaml:"cooldown_seconds"`
	MinBet            float64 `yaml:"min_bet"`
	MaxBet            float64 `yaml:"max_bet"`
	LargeWinThreshold float64 `yaml:"large_win_threshold"`
}

// SymbolConfig is one slot reel symbol.
type SymbolConfig struct {
	Name       string  `yaml:"name"`
	Weight     int64   `yaml:"weight"`
	Multiplier float64 `yaml:"multiplier"`
	Display    string  `yaml:"display"`
}

// SlotsConfig holds slot machine settings. HouseEdgePercent is expressed
// as a percentage (5.0 means 5%).
type SlotsConfig struct {
	Enabled          bool           `yaml:"enabled"`
	HouseEdgePercent float64        `yaml:"house_edge"`
	Symbols          []SymbolConfig `yaml:"symbols"`
}

// DiceConfig holds dice game settings.
type DiceConfig struct {
	Enabled          bool    `yaml:"enabled"`
	WinMultiplier    float64 `yaml:"win_multiplier"`
	HouseEdgePercent float64 `yaml:"house_edge"`
}

// BlackjackConfig holds blackjack settings.
type BlackjackConfig struct {
	Enabled             bool    `yaml:"enabled"`
	WinMultiplier       float64 `yaml:"win_multiplier"`
	BlackjackMultiplier float64 `yaml:"blackjack_multiplier"`
	DealerStand         int     `yaml:"dealer_stand"`
	HouseEdgePercent    float64 `yaml:"house_edge"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{
			Backend: "memory",
			DSN:     "host=localhost dbname=casino sslmode=disable",
		},
		Auth: AuthConfig{
			JWTSecret:   "casino-dev-secret-change-in-production",
			TokenExpiry: Duration(24 * time.Hour),
		},
		Economy: EconomyConfig{CurrencySymbol: "$"},
		Casino: CasinoConfig{
			CooldownSeconds:   5,
			MinBet:            10,
			MaxBet:            10000,
			LargeWinThreshold: 1000,
		},
		Slots: SlotsConfig{
			Enabled:          true,
			HouseEdgePercent: 5.0,
			Symbols: []SymbolConfig{
				{Name: "cherry", Weight: 40, Multiplier: 2.0, Display: "Cherry"},
				{Name: "lemon", Weight: 30, Multiplier: 3.0, Display: "Lemon"},
				{Name: "bell", Weight: 20, Multiplier: 5.0, Display: "Bell"},
				{Name: "diamond", Weight: 8, Multiplier: 10.0, Display: "Diamond"},
				{Name: "seven", Weight: 2, Multiplier: 50.0, Display: "Seven"},
			},
		},
		Dice: DiceConfig{
			Enabled:          true,
			WinMultiplier:    2.0,
			HouseEdgePercent: 2.0,
		},
		Blackjack: BlackjackConfig{
			Enabled:             false,
			WinMultiplier:       1.0,
			BlackjackMultiplier: 1.5,
			DealerStand:         17,
			HouseEdgePercent:    1.0,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty and the file exists), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("CASINO_PORT", c.Server.Port)
	c.Database.Backend = getEnv("CASINO_DB_BACKEND", c.Database.Backend)
	c.Database.DSN = getEnv("CASINO_DB_DSN", c.Database.DSN)
	c.Auth.JWTSecret = getEnv("CASINO_JWT_SECRET", c.Auth.JWTSecret)
	c.Economy.CurrencySymbol = getEnv("CASINO_CURRENCY_SYMBOL", c.Economy.CurrencySymbol)
	c.LogLevel = getEnv("CASINO_LOG_LEVEL", c.LogLevel)
	c.Casino.CooldownSeconds = getEnvInt("CASINO_COOLDOWN_SECONDS", c.Casino.CooldownSeconds)
	c.Casino.MinBet = getEnvFloat("CASINO_MIN_BET", c.Casino.MinBet)
	c.Casino.MaxBet = getEnvFloat("CASINO_MAX_BET", c.Casino.MaxBet)
}

// Validate enforces startup invariants. An empty symbol table is fatal
// here rather than at spin time.
func (c *Config) Validate() error {
	if len(c.Slots.Symbols) == 0 {
		return ErrNoSymbols
	}
	var total int64
	for _, s := range c.Slots.Symbols {
		if s.Weight <= 0 {
			return fmt.Errorf("slot symbol %q: weight must be positive", s.Name)
		}
		if s.Multiplier < 0 {
			return fmt.Errorf("slot symbol %q: multiplier must be non-negative", s.Name)
		}
		total += s.Weight
	}
	if total <= 0 {
		return ErrNoSymbols
	}
	if c.Casino.MinBet <= 0 || c.Casino.MaxBet < c.Casino.MinBet {
		return fmt.Errorf("invalid bet bounds: min %.2f, max %.2f", c.Casino.MinBet, c.Casino.MaxBet)
	}
	for name, edge := range map[string]float64{
		"slots":     c.Slots.HouseEdgePercent,
		"dice":      c.Dice.HouseEdgePercent,
		"blackjack": c.Blackjack.HouseEdgePercent,
	} {
		if edge < 0 || edge >= 100 {
			return fmt.Errorf("%s house edge must be in [0, 100): %.2f", name, edge)
		}
	}
	if c.Blackjack.DealerStand < 2 || c.Blackjack.DealerStand > 21 {
		return fmt.Errorf("blackjack dealer stand must be in [2, 21]: %d", c.Blackjack.DealerStand)
	}
	return nil
}

// Cooldown returns the cooldown window as a duration.
func (c *CasinoConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// EdgeFraction converts a percentage house edge into a [0,1) fraction.
func EdgeFraction(percent float64) float64 {
	return percent / 100
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
