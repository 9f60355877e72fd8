package casino

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// CooldownRegistry tracks each player's last-play timestamp. Entries are
// evaluated lazily; nothing expires them in the background, so memory grows
// with distinct players seen until Clear/ClearAll. Not safe for concurrent
// use on its own: the coordinator owns it and serializes access.
type CooldownRegistry struct {
	window   time.Duration
	now      func() time.Time
	lastPlay map[uuid.UUID]time.Time
}

// NewCooldownRegistry creates a registry with the given window. now may be
// nil, in which case time.Now is used; tests inject a fixed clock.
func NewCooldownRegistry(window time.Duration, now func() time.Time) *CooldownRegistry {
	if now == nil {
		now = time.Now
	}
	return &CooldownRegistry{
		window:   window,
		now:      now,
		lastPlay: make(map[uuid.UUID]time.Time),
	}
}

// IsOnCooldown reports whether the player played within the window.
func (r *CooldownRegistry) IsOnCooldown(player uuid.UUID) bool {
	last, ok := r.lastPlay[player]
	if !ok {
		return false
	}
	return r.now().Sub(last) < r.window
}

// Remaining returns the residual cooldown in whole seconds, rounded up,
// or 0 if the player is not on cooldown.
func (r *CooldownRegistry) Remaining(player uuid.UUID) int {
	last, ok := r.lastPlay[player]
	if !ok {
		return 0
	}
	residual := r.window - r.now().Sub(last)
	if residual <= 0 {
		return 0
	}
	return int(math.Ceil(residual.Seconds()))
}

// MarkPlayed records the current time as the player's last play.
func (r *CooldownRegistry) MarkPlayed(player uuid.UUID) {
	r.lastPlay[player] = r.now()
}

// Clear removes the player's cooldown entry.
func (r *CooldownRegistry) Clear(player uuid.UUID) {
	delete(r.lastPlay, player)
}

// ClearAll removes every cooldown entry.
func (r *CooldownRegistry) ClearAll() {
	r.lastPlay = make(map[uuid.UUID]time.Time)
}
