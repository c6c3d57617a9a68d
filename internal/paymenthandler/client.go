// Package paymenthandler реализует HTTP-клиент внешнего Payment Handler.
//
// Протокол: POST {address}/receive с телом {"payment_id": "...", "amount": n}.
// Обработчик отвечает 200 и {"accepted": true|false}. Ответ 4xx считается
// отказом, 5xx и сетевые ошибки считаются сбоем и учитываются circuit breaker.
package paymenthandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/magabrotheeeer/subscription-ledger/internal/config"
)

var (
	// ErrCircuitOpen возвращается, пока circuit breaker разомкнут.
	ErrCircuitOpen = errors.New("paymenthandler: circuit breaker is open")
	// ErrEmptyAddress возвращается, если адрес обработчика не задан.
	ErrEmptyAddress = errors.New("paymenthandler: handler address is empty")
)

const receivePath = "/receive"

type receiveRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
}

type receiveResponse struct {
	Accepted bool `json:"accepted"`
}

// Client передаёт средства Payment Handler по HTTP.
type Client struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	log        *slog.Logger
}

// NewClient создаёт клиента с настройками таймаута и circuit breaker из cfg.
func NewClient(cfg config.PaymentHandler, log *slog.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "payment-handler",
		MaxRequests: cfg.BreakerHalfOpens,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Client{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(settings),
		log:        log,
	}
}

// refused — ответ, который не считается сбоем обработчика.
type refused struct {
	status int
}

// Receive передаёт amount обработчику по адресу address.
// false без ошибки означает, что обработчик отказался принять средства.
func (c *Client) Receive(ctx context.Context, address string, amount int64) (bool, error) {
	const op = "paymenthandler.Receive"
	address = strings.TrimRight(address, "/")
	if address == "" {
		return false, ErrEmptyAddress
	}

	paymentID := uuid.NewString()
	log := c.log.With(
		slog.String("op", op),
		slog.String("payment_id", paymentID),
		slog.Int64("amount", amount),
	)

	start := time.Now()
	result, err := c.cb.Execute(func() (any, error) {
		var body receiveResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBody(receiveRequest{PaymentID: paymentID, Amount: amount}).
			SetResult(&body).
			Post(address + receivePath)
		if err != nil {
			return nil, err
		}

		status := resp.StatusCode()
		switch {
		case status >= http.StatusInternalServerError:
			return nil, fmt.Errorf("handler responded with status %d", status)
		case status != http.StatusOK:
			return refused{status: status}, nil
		}
		return body.Accepted, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, ErrCircuitOpen
		}
		log.Error("payment transfer failed", slog.Any("err", err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	latency := slog.Int64("latency_ms", time.Since(start).Milliseconds())
	switch r := result.(type) {
	case refused:
		log.Info("payment refused by handler", slog.Int("status", r.status), latency)
		return false, nil
	case bool:
		log.Debug("payment transferred", slog.Bool("accepted", r), latency)
		return r, nil
	}
	return false, fmt.Errorf("%s: unexpected result %T", op, result)
}
