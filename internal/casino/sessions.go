package casino

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
)

var ErrSessionConflict = errors.New("player already has an active game")

// Session is one player's in-flight game. The session owns the game instance
// from bet withdrawal until settlement or disconnect.
type Session struct {
	Player    uuid.UUID
	Game      game.Game
	StartedAt time.Time
}

// Bet returns the amount withdrawn when the session was created. This is the
// amount refunded on disconnect, regardless of any in-progress result.
func (s *Session) Bet() domain.Money {
	return s.Game.Bet()
}

// SessionRegistry maps each player to at most one active session.
// Like CooldownRegistry it is owned and serialized by the coordinator.
type SessionRegistry struct {
	sessions map[uuid.UUID]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uuid.UUID]*Session)}
}

// Start registers a session. A second start without an intervening End is a
// coordinator invariant violation and fails with ErrSessionConflict.
func (r *SessionRegistry) Start(player uuid.UUID, session *Session) error {
	if _, ok := r.sessions[player]; ok {
		return ErrSessionConflict
	}
	r.sessions[player] = session
	return nil
}

// HasActive reports whether the player has a session.
func (r *SessionRegistry) HasActive(player uuid.UUID) bool {
	_, ok := r.sessions[player]
	return ok
}

// Active returns the player's session, or nil.
func (r *SessionRegistry) Active(player uuid.UUID) *Session {
	return r.sessions[player]
}

// End removes the player's session unconditionally.
func (r *SessionRegistry) End(player uuid.UUID) {
	delete(r.sessions, player)
}

// All returns the current sessions in no particular order.
func (r *SessionRegistry) All() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	return len(r.sessions)
}

// ClearAll removes every session.
func (r *SessionRegistry) ClearAll() {
	r.sessions = make(map[uuid.UUID]*Session)
}
