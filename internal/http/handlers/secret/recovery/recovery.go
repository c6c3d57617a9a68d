// Package recovery реализует HTTP-обработчик платного восстановления секрета подписчика.
package recovery

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
)

// Request — тело запроса восстановления секрета.
type Request struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

// Service описывает восстановление секрета.
type Service interface {
	RecoverSecret(ctx context.Context, caller string, paidFee int64) (string, error)
}

// Handler обрабатывает POST /secret/recover.
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
	const op = "handlers.secret.recover"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.Caller(r.Context())
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

	secret, err := h.service.RecoverSecret(r.Context(), caller, req.Amount)
	if err != nil {
		status, body := response.FromError(err)
		log.Error("failed to recover secret", sl.Err(err), slog.Int("status", status))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("secret recovered", slog.String("identity", caller))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"secret_key": secret,
	}))
}
