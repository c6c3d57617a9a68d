// Package rotate реализует HTTP-обработчик смены секретного ключа подписчиком.
package rotate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
)

// Request — тело запроса смены секрета.
type Request struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// Service описывает смену секрета.
type Service interface {
	RotateSecret(ctx context.Context, caller, current, next string) error
}

// Handler обрабатывает PUT /secret.
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
	const op = "handlers.secret.rotate"
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

	if err := h.service.RotateSecret(r.Context(), caller, req.Current, req.Next); err != nil {
		status, body := response.FromError(err)
		log.Error("failed to rotate secret", sl.Err(err), slog.Int("status", status))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("secret rotated", slog.String("identity", caller))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"identity": caller,
	}))
}
