package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	UsersCreated         prometheus.Counter
	Users                prometheus.Gauge
	AccountsCreated      prometheus.Counter
	AccountsDeleted      prometheus.Counter
	TransactionsApplied  *prometheus.CounterVec
	TransactionsRejected *prometheus.CounterVec
	ApplyDuration        prometheus.Histogram
	RequestDuration      *prometheus.HistogramVec
	RateLimited          *prometheus.CounterVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_users_created_total",
			Help: "Total number of users created in the system",
		}),
		Users: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankcore_users",
			Help: "Users currently registered",
		}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accounts_created_total",
			Help: "Total number of bank accounts opened",
		}),
		AccountsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accounts_deleted_total",
			Help: "Total number of bank accounts closed",
		}),
		TransactionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_transactions_total",
			Help: "Transactions posted to accounts, by type",
		}, []string{"type"}),
		TransactionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_transactions_rejected_total",
			Help: "Transactions refused by the ledger, by reason",
		}, []string{"reason"}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_transaction_apply_duration_seconds",
			Help:    "Duration of ledger apply operations including lock wait",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankcore_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_rate_limited_total",
			Help: "Requests refused by a rate limiter, by scope",
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) SetUsers(n int) {
	if m == nil {
		return
	}
	m.Users.Set(float64(n))
}

func (m *Metrics) IncrementAccountsCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

func (m *Metrics) IncrementAccountsDeleted() {
	if m == nil {
		return
	}
	m.AccountsDeleted.Inc()
}

func (m *Metrics) IncrementTransactionApplied(txType string) {
	if m == nil {
		return
	}
	m.TransactionsApplied.WithLabelValues(txType).Inc()
}

func (m *Metrics) IncrementTransactionRejected(reason string) {
	if m == nil {
		return
	}
	m.TransactionsRejected.WithLabelValues(reason).Inc()
}

// ObserveApply records the duration of an apply started at start.
func (m *Metrics) ObserveApply(start time.Time) {
	if m == nil {
		return
	}
	m.ApplyDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *Metrics) IncrementRateLimited(scope string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(scope).Inc()
}
