// Package read реализует HTTP-обработчик чтения условий одного тарифа.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Service описывает чтение условий тарифа.
type Service interface {
	PlanTerms(ctx context.Context, tier models.Tier) (int64, time.Duration, error)
}

// Handler обрабатывает GET /plans/{tier}.
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
	const op = "handlers.plans.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tier, err := models.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		log.Error("unknown plan", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	price, duration, err := h.service.PlanTerms(r.Context(), tier)
	if err != nil {
		status, body := response.FromError(err)
		log.Error("failed to read plan", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(response.FromPlan(models.Plan{
		Tier:     tier,
		Price:    price,
		Duration: duration,
	})))
}
