package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/domain"
)

// Memory is an in-process ledger for development and tests. Unknown players
// are treated as having a zero balance rather than an error, so HasFunds and
// Withdraw fail cleanly instead of failing loudly.
type Memory struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]domain.Money
	accounts map[string]*Credentials
	currency string
}

// NewMemory creates an empty in-memory ledger. currency is the display symbol
// used by Format.
func NewMemory(currency string) *Memory {
	return &Memory{
		balances: make(map[uuid.UUID]domain.Money),
		accounts: make(map[string]*Credentials),
		currency: currency,
	}
}

// SetBalance overwrites a player's balance. Test and bootstrap helper.
func (m *Memory) SetBalance(player uuid.UUID, amount domain.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[player] = amount
}

func (m *Memory) HasFunds(_ context.Context, player uuid.UUID, amount domain.Money) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[player] >= amount
}

func (m *Memory) Balance(_ context.Context, player uuid.UUID) domain.Money {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[player]
}

func (m *Memory) Withdraw(_ context.Context, player uuid.UUID, amount domain.Money) bool {
	if !amount.IsPositive() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[player] < amount {
		return false
	}
	m.balances[player] -= amount
	return true
}

func (m *Memory) Deposit(_ context.Context, player uuid.UUID, amount domain.Money) bool {
	if !amount.IsPositive() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[player] += amount
	return true
}

func (m *Memory) Format(amount domain.Money) string {
	return fmt.Sprintf("%s%s", m.currency, amount)
}

// CreatePlayer registers a new account with a zero balance.
func (m *Memory) CreatePlayer(_ context.Context, username, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[username]; ok {
		return uuid.Nil, ErrPlayerExists
	}

	id := uuid.New()
	m.accounts[username] = &Credentials{
		PlayerID:     id,
		Username:     username,
		PasswordHash: passwordHash,
	}
	m.balances[id] = 0
	return id, nil
}

func (m *Memory) PlayerByUsername(_ context.Context, username string) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.accounts[username]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	copied := *creds
	return &copied, nil
}
