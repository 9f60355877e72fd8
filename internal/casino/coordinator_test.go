package casino

import (
	"context"
	"io"
	mathrand "math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/audit"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
	"github.com/mejz/casino/internal/ledger"
	"github.com/mejz/casino/internal/metrics"
	"github.com/mejz/casino/internal/rng"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Always-winning single-symbol table keeps payout math deterministic:
// every spin pays bet x 2 with no edge.
var testSlotSymbols = []game.Symbol{
	{Name: "star", Weight: 1, Multiplier: 2.0, Display: "Star"},
}

func testConfig() Config {
	return Config{
		Cooldown:          5 * time.Second,
		MinBet:            domain.MoneyFromFloat(10),
		MaxBet:            domain.MoneyFromFloat(10000),
		LargeWinThreshold: domain.MoneyFromFloat(1000),
		SlotsEnabled:      true,
		DiceEnabled:       true,
		BlackjackEnabled:  true,
		DiceRules:         game.DiceRules{WinMultiplier: 2.0, HouseEdge: 0.02},
		BlackjackRules: game.BlackjackRules{
			WinMultiplier:       1.0,
			BlackjackMultiplier: 1.5,
			DealerStand:         17,
			HouseEdge:           0.01,
		},
	}
}

func newTestCoordinator(t *testing.T, cfg Config, provider ledger.Provider, clock *fakeClock) *Coordinator {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	src := rng.NewWithEntropy(mathrand.New(mathrand.NewSource(1)))
	slots, err := game.NewMachine(src, testSlotSymbols, 0)
	require.NoError(t, err)

	var now func() time.Time
	if clock != nil {
		now = clock.Now
	}
	return New(cfg, provider, src, slots, audit.New(log), metrics.New(prometheus.NewRegistry()), log, now)
}

func fundedPlayer(led *ledger.Memory, amount float64) uuid.UUID {
	player := uuid.New()
	led.SetBalance(player, domain.MoneyFromFloat(amount))
	return player
}

func TestValidateOrdering(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCoordinator(t, testConfig(), led, clock)
	player := fundedPlayer(led, 100)
	bet := domain.MoneyFromFloat(50)

	t.Run("AllChecksPass", func(t *testing.T) {
		assert.Nil(t, c.Validate(ctx, player, bet))
	})

	t.Run("BetTooLowEvenWithSufficientBalance", func(t *testing.T) {
		rej := c.Validate(ctx, player, domain.MoneyFromFloat(5))
		require.NotNil(t, rej)
		assert.Equal(t, ReasonBetTooLow, rej.Reason)
	})

	t.Run("BetTooHigh", func(t *testing.T) {
		rich := fundedPlayer(led, 1000000)
		rej := c.Validate(ctx, rich, domain.MoneyFromFloat(20000))
		require.NotNil(t, rej)
		assert.Equal(t, ReasonBetTooHigh, rej.Reason)
	})

	t.Run("InsufficientFundsCheckedLast", func(t *testing.T) {
		rej := c.Validate(ctx, player, domain.MoneyFromFloat(500))
		require.NotNil(t, rej)
		assert.Equal(t, ReasonInsufficientFunds, rej.Reason)
	})

	t.Run("CooldownCheckedBeforeBounds", func(t *testing.T) {
		_, err := c.StartSlots(ctx, player, bet)
		require.NoError(t, err)

		// An out-of-bounds bet still reports the cooldown first.
		rej := c.Validate(ctx, player, domain.MoneyFromFloat(5))
		require.NotNil(t, rej)
		assert.Equal(t, ReasonCooldown, rej.Reason)
		assert.Contains(t, rej.Message, "5 seconds")
	})

	t.Run("SessionCheckedAfterCooldown", func(t *testing.T) {
		clock.Advance(10 * time.Second)
		rej := c.Validate(ctx, player, bet)
		require.NotNil(t, rej)
		assert.Equal(t, ReasonSessionActive, rej.Reason)
	})
}

func TestStartSlots(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)
	bet := domain.MoneyFromFloat(50)

	snap, err := c.StartSlots(ctx, player, bet)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, game.KindSlots, snap.Game)
	assert.Equal(t, bet, snap.Bet)
	assert.True(t, snap.Settled)
	require.NotNil(t, snap.Slots)
	assert.Equal(t, domain.MoneyFromFloat(100), snap.Payout) // 50 x 2.0

	// Bet escrowed, session registered, cooldown set.
	assert.Equal(t, domain.MoneyFromFloat(50), led.Balance(ctx, player))
	assert.Equal(t, 1, c.ActiveSessions())
	rej := c.Validate(ctx, player, bet)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonCooldown, rej.Reason)
}

func TestFinishDepositsPayout(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)

	_, err := c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)

	snap, err := c.Finish(ctx, player)
	require.NoError(t, err)

	// 100 - 50 bet + 100 payout.
	assert.Equal(t, domain.MoneyFromFloat(150), led.Balance(ctx, player))
	assert.Equal(t, domain.MoneyFromFloat(100), snap.Payout)
	assert.Equal(t, 0, c.ActiveSessions())
	assert.Nil(t, c.Snapshot(player))

	_, err = c.Finish(ctx, player)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestDisconnectRefundsOriginalBet(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)

	_, err := c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)
	require.Equal(t, domain.MoneyFromFloat(50), led.Balance(ctx, player))

	// The slot already settled with a winning payout, but a disconnect
	// before Finish refunds exactly the bet, never the payout.
	c.HandleDisconnect(ctx, player)

	assert.Equal(t, domain.MoneyFromFloat(100), led.Balance(ctx, player))
	assert.Equal(t, 0, c.ActiveSessions())
	// Cooldown cleared too: the player can start again immediately.
	assert.Nil(t, c.Validate(ctx, player, domain.MoneyFromFloat(50)))
}

func TestDisconnectWithoutSessionClearsCooldownOnly(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)

	_, err := c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)
	_, err = c.Finish(ctx, player)
	require.NoError(t, err)
	balance := led.Balance(ctx, player)

	c.HandleDisconnect(ctx, player)
	assert.Equal(t, balance, led.Balance(ctx, player), "no refund without a session")
	assert.Nil(t, c.Validate(ctx, player, domain.MoneyFromFloat(50)))
}

func TestSecondStartRejected(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCoordinator(t, testConfig(), led, clock)
	player := fundedPlayer(led, 1000)
	bet := domain.MoneyFromFloat(50)

	_, err := c.StartSlots(ctx, player, bet)
	require.NoError(t, err)
	clock.Advance(10 * time.Second) // past cooldown, session still active

	_, err = c.StartDice(ctx, player, bet)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, ReasonSessionActive, rej.Reason)
	assert.Equal(t, 1, c.ActiveSessions())
	assert.Equal(t, domain.MoneyFromFloat(950), led.Balance(ctx, player), "second bet not withdrawn")
}

func TestBlackjackFlow(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)
	bet := domain.MoneyFromFloat(50)

	snap, err := c.StartBlackjack(ctx, player, bet)
	require.NoError(t, err)
	require.NotNil(t, snap.Blackjack)
	assert.Len(t, snap.Blackjack.PlayerCards, 2)
	assert.Len(t, snap.Blackjack.DealerCards, 2)

	if !snap.Settled {
		snap, err = c.Stand(ctx, player)
		require.NoError(t, err)
	}
	assert.True(t, snap.Settled)
	require.NotNil(t, snap.Blackjack.Result)

	_, err = c.Finish(ctx, player)
	require.NoError(t, err)

	// Money conservation: final balance is start - bet + payout.
	want := domain.MoneyFromFloat(100) - bet + snap.Payout
	assert.Equal(t, want, led.Balance(ctx, player))
}

func TestBlackjackActionsRequireBlackjackSession(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)

	_, err := c.Hit(ctx, player)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)

	_, err = c.Hit(ctx, player)
	assert.ErrorIs(t, err, ErrWrongGame)
	_, err = c.Stand(ctx, player)
	assert.ErrorIs(t, err, ErrWrongGame)
}

func TestFinishBeforeSettlement(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)

	snap, err := c.StartBlackjack(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)
	if snap.Settled {
		t.Skip("dealt a natural, nothing unsettled to finish")
	}

	_, err = c.Finish(ctx, player)
	assert.ErrorIs(t, err, ErrGameNotSettled)
	assert.Equal(t, 1, c.ActiveSessions())
}

func TestDisabledGameRejected(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	cfg := testConfig()
	cfg.BlackjackEnabled = false
	c := newTestCoordinator(t, cfg, led, nil)
	player := fundedPlayer(led, 100)

	_, err := c.StartBlackjack(ctx, player, domain.MoneyFromFloat(50))
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, ReasonGameDisabled, rej.Reason)
	assert.Equal(t, domain.MoneyFromFloat(100), led.Balance(ctx, player))

	c.SetGameEnabled(game.KindBlackjack, true)
	assert.True(t, c.GameEnabled(game.KindBlackjack))
	_, err = c.StartBlackjack(ctx, player, domain.MoneyFromFloat(50))
	assert.NoError(t, err)
}

// failingLedger wraps the in-memory ledger and forces transfer failures.
type failingLedger struct {
	*ledger.Memory
	failWithdraw bool
	failDeposit  bool
}

func (f *failingLedger) Withdraw(ctx context.Context, player uuid.UUID, amount domain.Money) bool {
	if f.failWithdraw {
		return false
	}
	return f.Memory.Withdraw(ctx, player, amount)
}

func (f *failingLedger) Deposit(ctx context.Context, player uuid.UUID, amount domain.Money) bool {
	if f.failDeposit {
		return false
	}
	return f.Memory.Deposit(ctx, player, amount)
}

func TestWithdrawFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	led := &failingLedger{Memory: ledger.NewMemory("$"), failWithdraw: true}
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led.Memory, 100)

	_, err := c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	assert.ErrorIs(t, err, ErrWithdrawFailed)

	// No session created, no cooldown set, balance untouched.
	assert.Equal(t, 0, c.ActiveSessions())
	assert.Nil(t, c.Validate(ctx, player, domain.MoneyFromFloat(50)))
	assert.Equal(t, domain.MoneyFromFloat(100), led.Balance(ctx, player))
}

func TestDepositFailureDoesNotBlockSettlement(t *testing.T) {
	ctx := context.Background()
	led := &failingLedger{Memory: ledger.NewMemory("$")}
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led.Memory, 100)

	_, err := c.StartSlots(ctx, player, domain.MoneyFromFloat(50))
	require.NoError(t, err)

	led.failDeposit = true
	_, err = c.Finish(ctx, player)
	require.NoError(t, err, "deposit failure is surfaced, not fatal")
	assert.Equal(t, 0, c.ActiveSessions(), "session cleared despite failed credit")
}

func TestShutdownRefundsAllSessions(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)

	alice := fundedPlayer(led, 100)
	bob := fundedPlayer(led, 200)

	_, err := c.StartSlots(ctx, alice, domain.MoneyFromFloat(50))
	require.NoError(t, err)
	_, err = c.StartDice(ctx, bob, domain.MoneyFromFloat(100))
	require.NoError(t, err)
	require.Equal(t, 2, c.ActiveSessions())

	c.Shutdown(ctx)

	assert.Equal(t, 0, c.ActiveSessions())
	assert.Equal(t, domain.MoneyFromFloat(100), led.Balance(ctx, alice))
	assert.Equal(t, domain.MoneyFromFloat(200), led.Balance(ctx, bob))
}

func TestStartDice(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory("$")
	c := newTestCoordinator(t, testConfig(), led, nil)
	player := fundedPlayer(led, 100)
	bet := domain.MoneyFromFloat(20)

	snap, err := c.StartDice(ctx, player, bet)
	require.NoError(t, err)
	require.NotNil(t, snap.Dice)
	assert.True(t, snap.Settled)
	assert.GreaterOrEqual(t, snap.Dice.PlayerRoll, 1)
	assert.LessOrEqual(t, snap.Dice.PlayerRoll, 6)

	_, err = c.Finish(ctx, player)
	require.NoError(t, err)
	want := domain.MoneyFromFloat(100) - bet + snap.Payout
	assert.Equal(t, want, led.Balance(ctx, player))
}
