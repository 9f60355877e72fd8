// Package ledger provides player balance management.
// The coordinator consumes the Provider capability; implementations back it
// with in-process state or Postgres.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/domain"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Provider is the balance ledger consumed by the coordinator. Withdraw and
// Deposit report success as a boolean: the coordinator treats false as a
// ledger failure regardless of cause, and implementations log the cause
// themselves. All amounts are already rounded to minor units by domain.Money.
type Provider interface {
	HasFunds(ctx context.Context, player uuid.UUID, amount domain.Money) bool
	Balance(ctx context.Context, player uuid.UUID) domain.Money
	Withdraw(ctx context.Context, player uuid.UUID, amount domain.Money) bool
	Deposit(ctx context.Context, player uuid.UUID, amount domain.Money) bool
	Format(amount domain.Money) string
}

// Credentials is a stored login record.
type Credentials struct {
	PlayerID     uuid.UUID
	Username     string
	PasswordHash string
}

// PlayerStore manages player accounts behind the auth service.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, username, passwordHash string) (uuid.UUID, error)
	PlayerByUsername(ctx context.Context, username string) (*Credentials, error)
}
