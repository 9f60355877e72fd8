// Package audit records significant gaming events.
// Events go to the structured log rather than a database table; the
// transaction log in the ledger already covers financial reconciliation.
package audit

import (
	"github.com/google/uuid"
	"github.com/mejz/casino/internal/domain"
	"github.com/sirupsen/logrus"
)

// Significant event types.
const (
	EventGameStarted   = "game_started"
	EventGameSettled   = "game_settled"
	EventLargeWin      = "large_win"
	EventRefundIssued  = "refund_issued"
	EventDepositFailed = "deposit_failed"
	EventGameToggled   = "game_toggled"
)

// Service writes significant events as structured log entries.
type Service struct {
	log *logrus.Entry
}

// New creates an audit service on top of the given logger.
func New(log *logrus.Logger) *Service {
	return &Service{log: log.WithField("component", "audit")}
}

// Log records a significant event with arbitrary detail fields.
func (s *Service) Log(event string, player uuid.UUID, details map[string]interface{}) {
	fields := logrus.Fields{
		"event":     event,
		"player_id": player.String(),
	}
	for k, v := range details {
		fields[k] = v
	}
	s.log.WithFields(fields).Info("significant event")
}

// LogMoney records a significant event carrying a single monetary amount.
func (s *Service) LogMoney(event string, player uuid.UUID, amount domain.Money) {
	s.Log(event, player, map[string]interface{}{"amount": amount.String()})
}
