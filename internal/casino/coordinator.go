// Package casino coordinates validation, bet escrow, game execution and
// payout. The coordinator is the only component that talks to the ledger,
// and the only writer of the cooldown and session registries.
package casino

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/audit"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
	"github.com/mejz/casino/internal/ledger"
	"github.com/mejz/casino/internal/metrics"
	"github.com/mejz/casino/internal/rng"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoActiveSession = errors.New("no active game session")
	ErrWrongGame       = errors.New("action does not apply to the active game")
	ErrGameNotSettled  = errors.New("game is not settled yet")
	ErrWithdrawFailed  = errors.New("bet withdrawal failed")
)

// RejectionReason classifies why a game start was refused.
type RejectionReason string

const (
	ReasonGameDisabled      RejectionReason = "game_disabled"
	ReasonCooldown          RejectionReason = "cooldown_active"
	ReasonSessionActive     RejectionReason = "session_active"
	ReasonBetTooLow         RejectionReason = "bet_too_low"
	ReasonBetTooHigh        RejectionReason = "bet_too_high"
	ReasonInsufficientFunds RejectionReason = "insufficient_funds"
)

// Rejection is a user-facing validation outcome. It is a value, not a fault:
// validation never mutates state and never fails internally.
type Rejection struct {
	Reason  RejectionReason `json:"reason"`
	Message string          `json:"message"`
}

func (r *Rejection) Error() string {
	return r.Message
}

// Config holds the coordinator's table rules.
type Config struct {
	Cooldown          time.Duration
	MinBet            domain.Money
	MaxBet            domain.Money
	LargeWinThreshold domain.Money

	SlotsEnabled     bool
	DiceEnabled      bool
	BlackjackEnabled bool

	DiceRules      game.DiceRules
	BlackjackRules game.BlackjackRules
}

// Coordinator orchestrates the full game lifecycle:
// validate -> withdraw -> play -> settle -> deposit -> clear.
//
// All registry and ledger mutation for an interaction happens under one
// mutex, so there is no window between the balance check and the
// withdrawal, and a second action for the same player waits rather than
// interleaving.
type Coordinator struct {
	mu sync.Mutex

	cfg     Config
	ledger  ledger.Provider
	src     rng.Source
	slots   *game.Machine
	enabled map[game.Kind]bool

	cooldowns *CooldownRegistry
	sessions  *SessionRegistry

	audit   *audit.Service
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// New creates a coordinator. now may be nil to use the wall clock.
func New(cfg Config, provider ledger.Provider, src rng.Source, slots *game.Machine,
	auditSvc *audit.Service, m *metrics.Metrics, log *logrus.Logger, now func() time.Time) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		ledger: provider,
		src:    src,
		slots:  slots,
		enabled: map[game.Kind]bool{
			game.KindSlots:     cfg.SlotsEnabled,
			game.KindDice:      cfg.DiceEnabled,
			game.KindBlackjack: cfg.BlackjackEnabled,
		},
		cooldowns: NewCooldownRegistry(cfg.Cooldown, now),
		sessions:  NewSessionRegistry(),
		audit:     auditSvc,
		metrics:   m,
		log:       log.WithField("component", "casino"),
	}
}

// Validate checks whether the player may start a game with the given bet.
// Checks run in order: cooldown, active session, bet below minimum, bet
// above maximum, insufficient balance. Returns nil when all pass.
func (c *Coordinator) Validate(ctx context.Context, player uuid.UUID, bet domain.Money) *Rejection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate(ctx, player, bet)
}

func (c *Coordinator) validate(ctx context.Context, player uuid.UUID, bet domain.Money) *Rejection {
	if c.cooldowns.IsOnCooldown(player) {
		return &Rejection{
			Reason:  ReasonCooldown,
			Message: fmt.Sprintf("please wait %d seconds before playing again", c.cooldowns.Remaining(player)),
		}
	}
	if c.sessions.HasActive(player) {
		return &Rejection{
			Reason:  ReasonSessionActive,
			Message: "finish your current game first",
		}
	}
	if bet < c.cfg.MinBet {
		return &Rejection{
			Reason:  ReasonBetTooLow,
			Message: fmt.Sprintf("minimum bet is %s", c.ledger.Format(c.cfg.MinBet)),
		}
	}
	if bet > c.cfg.MaxBet {
		return &Rejection{
			Reason:  ReasonBetTooHigh,
			Message: fmt.Sprintf("maximum bet is %s", c.ledger.Format(c.cfg.MaxBet)),
		}
	}
	if !c.ledger.HasFunds(ctx, player, bet) {
		return &Rejection{
			Reason:  ReasonInsufficientFunds,
			Message: fmt.Sprintf("insufficient funds, your balance is %s", c.ledger.Format(c.ledger.Balance(ctx, player))),
		}
	}
	return nil
}

// StartSlots validates, escrows the bet and spins the reels.
func (c *Coordinator) StartSlots(ctx context.Context, player uuid.UUID, bet domain.Money) (*Snapshot, error) {
	return c.start(ctx, player, game.KindSlots, bet, func() game.Game {
		return game.NewSlot(c.slots, bet)
	})
}

// StartDice validates, escrows the bet and rolls both dice.
func (c *Coordinator) StartDice(ctx context.Context, player uuid.UUID, bet domain.Money) (*Snapshot, error) {
	return c.start(ctx, player, game.KindDice, bet, func() game.Game {
		return game.NewDice(c.src, c.cfg.DiceRules, bet)
	})
}

// StartBlackjack validates, escrows the bet and deals the opening hands.
func (c *Coordinator) StartBlackjack(ctx context.Context, player uuid.UUID, bet domain.Money) (*Snapshot, error) {
	var buildErr error
	snap, err := c.start(ctx, player, game.KindBlackjack, bet, func() game.Game {
		g, err := game.NewBlackjack(c.src, c.cfg.BlackjackRules, bet)
		if err != nil {
			buildErr = err
			return nil
		}
		return g
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return snap, err
}

// start is the shared start path. The bet leaves the ledger before the game
// exists; any failure after the withdrawal refunds it before returning.
func (c *Coordinator) start(ctx context.Context, player uuid.UUID, kind game.Kind,
	bet domain.Money, build func() game.Game) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled[kind] {
		return nil, &Rejection{
			Reason:  ReasonGameDisabled,
			Message: fmt.Sprintf("%s is currently disabled", kind),
		}
	}
	if rej := c.validate(ctx, player, bet); rej != nil {
		return nil, rej
	}

	if !c.ledger.Withdraw(ctx, player, bet) {
		// Fails closed: no session, no cooldown.
		c.log.WithFields(logrus.Fields{
			"player_id": player,
			"bet":       bet,
		}).Error("bet withdrawal failed")
		return nil, ErrWithdrawFailed
	}

	g := build()
	if g == nil {
		c.refund(ctx, player, bet)
		return nil, fmt.Errorf("failed to build %s game", kind)
	}
	if err := g.Start(); err != nil {
		c.refund(ctx, player, bet)
		return nil, fmt.Errorf("failed to start %s game: %w", kind, err)
	}

	session := &Session{Player: player, Game: g, StartedAt: time.Now().UTC()}
	if err := c.sessions.Start(player, session); err != nil {
		c.refund(ctx, player, bet)
		return nil, err
	}
	c.cooldowns.MarkPlayed(player)

	c.audit.Log(audit.EventGameStarted, player, map[string]interface{}{
		"game": string(kind),
		"bet":  bet.String(),
	})
	c.metrics.GamesStarted.WithLabelValues(string(kind)).Inc()
	c.metrics.AmountWagered.Add(bet.Float64())
	c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))

	c.log.WithFields(logrus.Fields{
		"player_id": player,
		"game":      kind,
		"bet":       bet,
	}).Info("game started")

	return snapshotSession(session), nil
}

// Hit deals one card to the player's blackjack hand.
func (c *Coordinator) Hit(ctx context.Context, player uuid.UUID) (*Snapshot, error) {
	return c.blackjackAction(player, func(g *game.Blackjack) error {
		_, err := g.Hit()
		return err
	})
}

// Stand ends the player's blackjack turn and runs the dealer.
func (c *Coordinator) Stand(ctx context.Context, player uuid.UUID) (*Snapshot, error) {
	return c.blackjackAction(player, func(g *game.Blackjack) error {
		return g.Stand()
	})
}

func (c *Coordinator) blackjackAction(player uuid.UUID, action func(*game.Blackjack) error) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions.Active(player)
	if session == nil {
		return nil, ErrNoActiveSession
	}
	g, ok := session.Game.(*game.Blackjack)
	if !ok {
		return nil, ErrWrongGame
	}
	if err := action(g); err != nil {
		return nil, err
	}
	return snapshotSession(session), nil
}

// Finish settles the player's session: deposits the payout, records the
// outcome and clears the session slot. The presentation layer calls this
// after it has shown the result; a disconnect before then refunds instead.
func (c *Coordinator) Finish(ctx context.Context, player uuid.UUID) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions.Active(player)
	if session == nil {
		return nil, ErrNoActiveSession
	}
	if !session.Game.Settled() {
		return nil, ErrGameNotSettled
	}

	kind := session.Game.Kind()
	payout := session.Game.Payout()

	if payout > 0 {
		if c.ledger.Deposit(ctx, player, payout) {
			c.metrics.AmountPaidOut.Add(payout.Float64())
			if c.cfg.LargeWinThreshold > 0 && payout >= c.cfg.LargeWinThreshold {
				c.audit.LogMoney(audit.EventLargeWin, player, payout)
			}
		} else {
			// The outcome is final; a failed credit is an operational
			// reconciliation concern, not a rollback.
			c.log.WithFields(logrus.Fields{
				"player_id": player,
				"payout":    payout,
			}).Warn("payout deposit failed")
			c.audit.LogMoney(audit.EventDepositFailed, player, payout)
		}
	}

	c.sessions.End(player)
	c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))
	c.metrics.GamesSettled.WithLabelValues(string(kind), outcomeLabel(session)).Inc()

	c.audit.Log(audit.EventGameSettled, player, map[string]interface{}{
		"game":   string(kind),
		"bet":    session.Bet().String(),
		"payout": payout.String(),
	})
	c.log.WithFields(logrus.Fields{
		"player_id": player,
		"game":      kind,
		"payout":    payout,
	}).Info("game settled")

	return snapshotSession(session), nil
}

// HandleDisconnect refunds the original bet of any in-flight game and clears
// the player's session and cooldown. This is the only unconditional-refund
// path: it ignores partial results entirely, so abandoning a game is never a
// forfeited bet and never a payout.
func (c *Coordinator) HandleDisconnect(ctx context.Context, player uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnect(ctx, player)
}

func (c *Coordinator) disconnect(ctx context.Context, player uuid.UUID) {
	session := c.sessions.Active(player)
	if session != nil {
		bet := session.Bet()
		c.refund(ctx, player, bet)
		c.sessions.End(player)
		c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))
		c.metrics.RefundsIssued.Inc()
		c.audit.LogMoney(audit.EventRefundIssued, player, bet)
		c.log.WithFields(logrus.Fields{
			"player_id": player,
			"game":      session.Game.Kind(),
			"refund":    bet,
		}).Info("session abandoned, bet refunded")
	}
	c.cooldowns.Clear(player)
}

func (c *Coordinator) refund(ctx context.Context, player uuid.UUID, amount domain.Money) {
	if !c.ledger.Deposit(ctx, player, amount) {
		c.log.WithFields(logrus.Fields{
			"player_id": player,
			"amount":    amount,
		}).Warn("refund deposit failed")
		c.audit.LogMoney(audit.EventDepositFailed, player, amount)
	}
}

// Snapshot returns a read-only view of the player's session, or nil.
func (c *Coordinator) Snapshot(player uuid.UUID) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions.Active(player)
	if session == nil {
		return nil
	}
	return snapshotSession(session)
}

// SetGameEnabled toggles a game at runtime.
func (c *Coordinator) SetGameEnabled(kind game.Kind, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled[kind] = enabled
	c.audit.Log(audit.EventGameToggled, uuid.Nil, map[string]interface{}{
		"game":    string(kind),
		"enabled": enabled,
	})
	c.log.WithFields(logrus.Fields{
		"game":    kind,
		"enabled": enabled,
	}).Info("game availability changed")
}

// GameEnabled reports whether a game accepts new sessions.
func (c *Coordinator) GameEnabled(kind game.Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[kind]
}

// ActiveSessions returns the number of in-flight games.
func (c *Coordinator) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Count()
}

// Shutdown refunds every in-flight game and clears all registries. In-flight
// games are abandoned through the same path as a disconnect, so no bet is
// lost on restart.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, session := range c.sessions.All() {
		c.disconnect(ctx, session.Player)
	}
	c.sessions.ClearAll()
	c.cooldowns.ClearAll()
	c.metrics.ActiveSessions.Set(0)
	c.log.Info("coordinator shut down, all sessions refunded")
}

func outcomeLabel(s *Session) string {
	switch g := s.Game.(type) {
	case *game.Blackjack:
		if r := g.Result(); r != nil {
			return string(r.Outcome)
		}
	default:
		if s.Game.Payout() > 0 {
			return "win"
		}
	}
	return "lose"
}
