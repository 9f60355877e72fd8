package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mejz/casino/internal/api"
	"github.com/mejz/casino/internal/audit"
	"github.com/mejz/casino/internal/auth"
	"github.com/mejz/casino/internal/casino"
	"github.com/mejz/casino/internal/config"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
	"github.com/mejz/casino/internal/ledger"
	"github.com/mejz/casino/internal/metrics"
	"github.com/mejz/casino/internal/rng"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("CASINO_CONFIG", "config.yml"))
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	auditSvc := audit.New(log)

	type playerLedger interface {
		ledger.Provider
		ledger.PlayerStore
	}
	var provider playerLedger
	switch cfg.Database.Backend {
	case "postgres":
		pg, err := ledger.NewPostgres(cfg.Database.DSN, cfg.Economy.CurrencySymbol, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres ledger")
		}
		defer pg.Close()
		provider = pg
	default:
		provider = ledger.NewMemory(cfg.Economy.CurrencySymbol)
	}

	rngSvc := rng.New()

	symbols := make([]game.Symbol, len(cfg.Slots.Symbols))
	for i, s := range cfg.Slots.Symbols {
		symbols[i] = game.Symbol{Name: s.Name, Weight: s.Weight, Multiplier: s.Multiplier, Display: s.Display}
	}
	slots, err := game.NewMachine(rngSvc, symbols, config.EdgeFraction(cfg.Slots.HouseEdgePercent))
	if err != nil {
		log.WithError(err).Fatal("failed to build slot machine")
	}
	log.WithField("rtp", slots.RTP()).Info("slot machine configured")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	coordinator := casino.New(casino.Config{
		Cooldown:          cfg.Casino.Cooldown(),
		MinBet:            domain.MoneyFromFloat(cfg.Casino.MinBet),
		MaxBet:            domain.MoneyFromFloat(cfg.Casino.MaxBet),
		LargeWinThreshold: domain.MoneyFromFloat(cfg.Casino.LargeWinThreshold),
		SlotsEnabled:      cfg.Slots.Enabled,
		DiceEnabled:       cfg.Dice.Enabled,
		BlackjackEnabled:  cfg.Blackjack.Enabled,
		DiceRules: game.DiceRules{
			WinMultiplier: cfg.Dice.WinMultiplier,
			HouseEdge:     config.EdgeFraction(cfg.Dice.HouseEdgePercent),
		},
		BlackjackRules: game.BlackjackRules{
			WinMultiplier:       cfg.Blackjack.WinMultiplier,
			BlackjackMultiplier: cfg.Blackjack.BlackjackMultiplier,
			DealerStand:         cfg.Blackjack.DealerStand,
			HouseEdge:           config.EdgeFraction(cfg.Blackjack.HouseEdgePercent),
		},
	}, provider, rngSvc, slots, auditSvc, m, log, nil)

	authSvc := auth.New(provider, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry.Std())
	handler := api.New(authSvc, coordinator, provider, rngSvc,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-sig
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	// Refund anything still in flight before the process exits.
	coordinator.Shutdown(ctx)
	log.Info("exiting")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
