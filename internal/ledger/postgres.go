package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/mejz/casino/internal/domain"
	"github.com/sirupsen/logrus"
)

// Postgres is the production ledger. Every balance change writes a
// transaction row in the same database transaction as the balance update,
// so the ledger is reconcilable after the fact.
type Postgres struct {
	db       *sql.DB
	log      *logrus.Entry
	currency string
}

// NewPostgres opens a connection, verifies it, and ensures the schema.
func NewPostgres(dsn, currency string, log *logrus.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{
		db:       db,
		log:      log.WithField("component", "ledger"),
		currency: currency,
	}
	if err := p.migrate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id),
		type VARCHAR(50) NOT NULL,
		amount BIGINT NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_player_id ON transactions(player_id);
	`
	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) HasFunds(ctx context.Context, player uuid.UUID, amount domain.Money) bool {
	return p.Balance(ctx, player) >= amount
}

func (p *Postgres) Balance(ctx context.Context, player uuid.UUID) domain.Money {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance FROM players WHERE id = $1`, player).Scan(&balance)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.log.WithError(err).WithField("player_id", player).Error("failed to query balance")
		}
		return 0
	}
	return domain.Money(balance)
}

func (p *Postgres) Withdraw(ctx context.Context, player uuid.UUID, amount domain.Money) bool {
	if !amount.IsPositive() {
		return false
	}
	return p.apply(ctx, player, -amount, "withdraw")
}

func (p *Postgres) Deposit(ctx context.Context, player uuid.UUID, amount domain.Money) bool {
	if !amount.IsPositive() {
		return false
	}
	return p.apply(ctx, player, amount, "deposit")
}

// apply moves delta onto the player's balance and records the transaction
// atomically. The balance row is locked for the duration so a concurrent
// withdrawal cannot overdraw.
func (p *Postgres) apply(ctx context.Context, player uuid.UUID, delta domain.Money, txType string) bool {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		p.log.WithError(err).Error("failed to begin transaction")
		return false
	}
	defer tx.Rollback()

	var before int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM players WHERE id = $1 FOR UPDATE`, player).Scan(&before)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.log.WithError(err).WithField("player_id", player).Error("failed to lock balance")
		}
		return false
	}

	after := before + int64(delta)
	if after < 0 {
		return false
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE players SET balance = $1, updated_at = $2 WHERE id = $3`,
		after, now, player)
	if err != nil {
		p.log.WithError(err).Error("failed to update balance")
		return false
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, player_id, type, amount, balance_before, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), player, txType, int64(delta), before, after, now)
	if err != nil {
		p.log.WithError(err).Error("failed to record transaction")
		return false
	}

	if err := tx.Commit(); err != nil {
		p.log.WithError(err).Error("failed to commit transaction")
		return false
	}
	return true
}

func (p *Postgres) Format(amount domain.Money) string {
	return fmt.Sprintf("%s%s", p.currency, amount)
}

// CreatePlayer registers a new account with a zero balance.
func (p *Postgres) CreatePlayer(ctx context.Context, username, passwordHash string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO players (id, username, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
	`, id, username, passwordHash, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create player: %w", err)
	}
	return id, nil
}

func (p *Postgres) PlayerByUsername(ctx context.Context, username string) (*Credentials, error) {
	creds := &Credentials{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM players WHERE username = $1
	`, username).Scan(&creds.PlayerID, &creds.Username, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	return creds, nil
}
