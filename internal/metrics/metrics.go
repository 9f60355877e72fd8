// Package metrics exposes Prometheus collectors for gaming activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors the coordinator updates.
type Metrics struct {
	GamesStarted   *prometheus.CounterVec
	GamesSettled   *prometheus.CounterVec
	AmountWagered  prometheus.Counter
	AmountPaidOut  prometheus.Counter
	RefundsIssued  prometheus.Counter
	ActiveSessions prometheus.Gauge
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GamesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casino_games_started_total",
			Help: "Games started, by game kind.",
		}, []string{"game"}),
		GamesSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casino_games_settled_total",
			Help: "Games settled, by game kind and outcome.",
		}, []string{"game", "outcome"}),
		AmountWagered: factory.NewCounter(prometheus.CounterOpts{
			Name: "casino_amount_wagered_total",
			Help: "Total amount wagered, in currency units.",
		}),
		AmountPaidOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "casino_amount_paid_out_total",
			Help: "Total amount paid out, in currency units.",
		}),
		RefundsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "casino_refunds_issued_total",
			Help: "Refunds issued for abandoned games.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "casino_active_sessions",
			Help: "Currently active game sessions.",
		}),
	}
}
