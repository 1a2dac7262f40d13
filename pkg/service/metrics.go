package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	WithdrawalTransitions *prometheus.CounterVec
	PayoutDuration        *prometheus.HistogramVec
	DepositCredits        *prometheus.CounterVec
	WatcherCursor         prometheus.Gauge
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WithdrawalTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_withdrawal_transitions_total",
				Help: "Withdrawal state transitions by resulting status.",
			},
			[]string{"status"},
		),
		PayoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_payout_duration_seconds",
				Help:    "Payout gateway call duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		DepositCredits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_deposit_credits_total",
				Help: "Deposit confirmation attempts by result.",
			},
			[]string{"result"},
		),
		WatcherCursor: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_deposit_watcher_cursor",
				Help: "Logical time of the last processed incoming transfer.",
			},
		),
	}

	registry.MustRegister(m.WithdrawalTransitions, m.PayoutDuration, m.DepositCredits, m.WatcherCursor)
	return m
}

func (m *Metrics) transition(status string) {
	if m == nil {
		return
	}
	m.WithdrawalTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) payout(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.PayoutDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) credit(result string) {
	if m == nil {
		return
	}
	m.DepositCredits.WithLabelValues(result).Inc()
}

func (m *Metrics) cursor(lt uint64) {
	if m == nil {
		return
	}
	m.WatcherCursor.Set(float64(lt))
}
