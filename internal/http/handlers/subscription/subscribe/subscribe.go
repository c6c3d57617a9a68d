// Package subscribe реализует HTTP-обработчик оформления и продления подписки
// вызывающим за свой счёт.
package subscribe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Request — тело запроса на оформление подписки.
type Request struct {
	Plan      string `json:"plan" validate:"required"`
	SecretKey string `json:"secret_key"`
	Amount    int64  `json:"amount" validate:"gte=0"`
}

// Service описывает бизнес-логику оформления подписки.
type Service interface {
	Subscribe(ctx context.Context, plan models.Tier, secretKey, payer string, paid int64) (models.Subscriber, error)
}

// Handler обрабатывает POST /subscriptions.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.subscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payer, ok := middlewarectx.Caller(r.Context())
	if !ok {
		log.Error("caller not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	plan, err := models.ParseTier(req.Plan)
	if err != nil {
		log.Error("unknown plan", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	sub, err := h.service.Subscribe(r.Context(), plan, req.SecretKey, payer, req.Amount)
	if err != nil {
		status, body := response.FromError(err)
		log.Error("failed to subscribe", sl.Err(err), slog.Int("status", status))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("subscription credited", slog.String("identity", sub.Identity), slog.Int64("valid_until", sub.ValidUntil))
	render.JSON(w, r, response.StatusOKWithData(response.FromSubscriber(sub)))
}
