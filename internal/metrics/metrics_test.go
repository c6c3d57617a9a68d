package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SubscriptionCreated(models.Monthly)
	m.SubscriptionCreated(models.Monthly)
	m.SubscriptionRenewed(models.Yearly)
	m.PaymentRejected("amount_mismatch")
	m.EventPublishFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.created.WithLabelValues("monthly")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.created.WithLabelValues("yearly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renewed.WithLabelValues("yearly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("amount_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailed))
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
