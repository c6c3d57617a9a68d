package ledger

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-ledger/internal/config"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/jwt"
)

const testSecret = "app-test-secret"

type fixture struct {
	server   *httptest.Server
	tokens   *jwt.MakerImpl
	received atomic.Int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{tokens: jwt.NewJWTMaker(testSecret, time.Hour)}

	handler := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount int64 `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.received.Add(body.Amount)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	t.Cleanup(handler.Close)

	cfg := &config.Config{
		Env:     "test",
		Storage: config.Storage{Driver: "memory"},
		HTTPServer: config.HTTPServer{
			AddressHTTP: ":0",
			TimeoutHTTP: 5 * time.Second,
			RateLimit:   1000,
			RateBurst:   1000,
		},
		JWTToken: config.JWTToken{JWTSecretKey: testSecret, TokenTTL: time.Hour},
		PaymentHandler: config.PaymentHandler{
			Timeout:          time.Second,
			BreakerFailures:  5,
			BreakerInterval:  time.Minute,
			BreakerTimeout:   time.Minute,
			BreakerHalfOpens: 1,
		},
		Ledger: config.Ledger{
			Owner:          "0xowner",
			Admins:         []string{"0xadmin"},
			HandlerAddress: handler.URL,
			RecoveryFee:    7,
			Monthly:        config.PlanConfig{Price: 100},
			Quarterly:      config.PlanConfig{Price: 270},
			HalfYearly:     config.PlanConfig{Price: 500},
			Yearly:         config.PlanConfig{Price: 900},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := New(t.Context(), cfg, logger)
	require.NoError(t, err)

	f.server = httptest.NewServer(app.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, caller, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if caller != "" {
		token, err := f.tokens.GenerateToken(caller)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestApp_SubscriptionFlow(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodGet, "/api/v1/plans", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"tier":"quarterly","index":1,"price":270`)

	code, _ = f.do(t, http.MethodGet, "/api/v1/subscriptions/active", "0xalice", "")
	assert.Equal(t, http.StatusForbidden, code, "unregistered caller must not pass the gate")

	code, body = f.do(t, http.MethodPost, "/api/v1/subscriptions", "0xalice", `{"plan":"monthly","secret_key":"Key","amount":100}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"index":1`)
	assert.Equal(t, int64(100), f.received.Load())

	code, body = f.do(t, http.MethodGet, "/api/v1/subscriptions/active", "0xalice", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"active":true`)

	code, body = f.do(t, http.MethodPost, "/api/v1/secret/verify", "", `{"identity":"0xalice","secret_key":"Key"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"valid":true`)

	code, _ = f.do(t, http.MethodPost, "/api/v1/subscriptions", "0xbob", `{"plan":"monthly","amount":99}`)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, int64(100), f.received.Load())

	code, body = f.do(t, http.MethodPost, "/api/v1/secret/recover", "0xalice", `{"amount":7}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"secret_key":"Key"`)
	assert.Equal(t, int64(107), f.received.Load())

	code, body = f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `ledger_subscriptions_created_total{plan="monthly"} 1`)
	assert.Contains(t, body, `ledger_payments_rejected_total{reason="amount_mismatch"} 1`)
}

func TestApp_OwnerPassesGateWithoutSubscription(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodGet, "/api/v1/subscriptions/active", "0xowner", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"active":false`)
}

func TestApp_AdminConfiguration(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodPut, "/api/v1/admin/plans/monthly/price", "0xalice", `{"price":120}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodPut, "/api/v1/admin/plans/monthly/price", "0xadmin", `{"price":120}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodPut, "/api/v1/admin/plans/monthly/price", "0xadmin", `{"price":120}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body := f.do(t, http.MethodGet, "/api/v1/plans/monthly", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"price":120`)

	code, _ = f.do(t, http.MethodPut, "/api/v1/admin/recovery-fee", "0xowner", `{"fee":9}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = f.do(t, http.MethodGet, "/api/v1/settings", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"recovery_fee":9`)
	assert.Contains(t, body, `"subscribers":1`)
}

func TestApp_RejectsMissingToken(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodPost, "/api/v1/subscriptions", "", `{"plan":"monthly","amount":100}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestApp_HealthAndMetrics(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"storage":"ok"`)

	code, body = f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")
}
