// Package metrics собирает счётчики Prometheus для леджера подписок.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

const namespace = "ledger"

// Metrics реализует сборщик исходов операций леджера.
type Metrics struct {
	created        *prometheus.CounterVec
	renewed        *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	publishFailed prometheus.Counter
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_created_total",
			Help:      "Number of new subscriber records.",
		}, []string{"plan"}),
		renewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_renewed_total",
			Help:      "Number of renewals of existing subscriber records.",
		}, []string{"plan"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Number of rejected payments by reason.",
		}, []string{"reason"}),
		publishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Number of subscription events that could not be published.",
		}),
	}
	reg.MustRegister(m.created, m.renewed, m.rejected, m.publishFailed)
	return m
}

// SubscriptionCreated учитывает новую запись подписчика.
func (m *Metrics) SubscriptionCreated(plan models.Tier) {
	m.created.WithLabelValues(plan.String()).Inc()
}

// SubscriptionRenewed учитывает продление существующей записи.
func (m *Metrics) SubscriptionRenewed(plan models.Tier) {
	m.renewed.WithLabelValues(plan.String()).Inc()
}

// PaymentRejected учитывает отклонённый платёж.
func (m *Metrics) PaymentRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// EventPublishFailed учитывает неопубликованное событие.
func (m *Metrics) EventPublishFailed() {
	m.publishFailed.Inc()
}
