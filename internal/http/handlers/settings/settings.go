// Package settings реализует HTTP-обработчик чтения настроек леджера.
package settings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
)

// Service описывает чтение настроек.
type Service interface {
	HandlerAddress(ctx context.Context) (string, error)
	RecoveryFee(ctx context.Context) (int64, error)
	SubscriberCount(ctx context.Context) (int64, error)
}

// Handler обрабатывает GET /settings.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	fail := func(err error) {
		log.Error("failed to read settings", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
	}

	address, err := h.service.HandlerAddress(r.Context())
	if err != nil {
		fail(err)
		return
	}
	fee, err := h.service.RecoveryFee(r.Context())
	if err != nil {
		fail(err)
		return
	}
	count, err := h.service.SubscriberCount(r.Context())
	if err != nil {
		fail(err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"handler_address": address,
		"recovery_fee":    fee,
		"subscribers":     count,
	}))
}
