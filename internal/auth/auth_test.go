package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return New(ledger.NewMemory("$"), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	id, err := s.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	t.Run("ValidCredentials", func(t *testing.T) {
		token, err := s.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		player, err := s.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, id, player)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := s.Login(ctx, "alice", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := s.Login(ctx, "bob", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		_, err := s.Register(ctx, "alice", "password123")
		assert.ErrorIs(t, err, ledger.ErrPlayerExists)
	})
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	_, err := s.Register(ctx, "", "password123")
	assert.Error(t, err)

	_, err = s.Register(ctx, "alice", "short")
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	s := newTestService()

	_, err := s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Tokens signed with a different secret are rejected.
	other := New(ledger.NewMemory("$"), "other-secret", time.Hour)
	ctx := context.Background()
	_, err = other.Register(ctx, "eve", "password123")
	require.NoError(t, err)
	token, err := other.Login(ctx, "eve", "password123")
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
