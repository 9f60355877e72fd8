package casino

import (
	"github.com/google/uuid"
	"github.com/mejz/casino/internal/domain"
	"github.com/mejz/casino/internal/game"
)

// Snapshot is a read-only view of a session for the presentation layer.
// It carries everything needed to render without exposing mutation.
type Snapshot struct {
	Player  uuid.UUID    `json:"player_id"`
	Game    game.Kind    `json:"game"`
	Bet     domain.Money `json:"bet"`
	Settled bool         `json:"settled"`
	Payout  domain.Money `json:"payout"`

	Slots     *game.SlotResult `json:"slots,omitempty"`
	Dice      *game.DiceResult `json:"dice,omitempty"`
	Blackjack *BlackjackView   `json:"blackjack,omitempty"`
}

// BlackjackView is the renderable state of a blackjack round, including the
// legal-action flags the presentation uses to enable buttons.
type BlackjackView struct {
	Phase       game.BlackjackPhase   `json:"phase"`
	PlayerCards []game.Card           `json:"player_cards"`
	DealerCards []game.Card           `json:"dealer_cards"`
	PlayerValue int                   `json:"player_value"`
	DealerValue int                   `json:"dealer_value"`
	CanHit      bool                  `json:"can_hit"`
	CanStand    bool                  `json:"can_stand"`
	Result      *game.BlackjackResult `json:"result,omitempty"`
}

func snapshotSession(s *Session) *Snapshot {
	snap := &Snapshot{
		Player:  s.Player,
		Game:    s.Game.Kind(),
		Bet:     s.Game.Bet(),
		Settled: s.Game.Settled(),
		Payout:  s.Game.Payout(),
	}

	switch g := s.Game.(type) {
	case *game.Slot:
		snap.Slots = g.Result()
	case *game.Dice:
		snap.Dice = g.Result()
	case *game.Blackjack:
		snap.Blackjack = &BlackjackView{
			Phase:       g.Phase(),
			PlayerCards: g.PlayerCards(),
			DealerCards: g.DealerCards(),
			PlayerValue: g.PlayerValue(),
			DealerValue: g.DealerValue(),
			CanHit:      g.CanHit(),
			CanStand:    g.CanStand(),
			Result:      g.Result(),
		}
	}

	return snap
}
