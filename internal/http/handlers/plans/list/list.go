// Package list реализует HTTP-обработчик чтения таблицы тарифов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Service описывает чтение таблицы тарифов.
type Service interface {
	Plans(ctx context.Context) ([]models.Plan, error)
}

// Handler обрабатывает GET /plans.
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
	const op = "handlers.plans.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.Plans(r.Context())
	if err != nil {
		status, body := response.FromError(err)
		log.Error("failed to list plans", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	views := make([]response.Plan, 0, len(plans))
	for _, p := range plans {
		views = append(views, response.FromPlan(p))
	}
	render.JSON(w, r, response.StatusOKWithData(views))
}
