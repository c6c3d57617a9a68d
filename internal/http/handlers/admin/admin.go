// Package admin реализует HTTP-обработчики административной настройки леджера:
// адрес Payment Handler, плату за восстановление секрета, цены и длительности тарифов.
// Право на изменение проверяет сервис через реестр ролей.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Service описывает административные операции леджера.
type Service interface {
	SetHandlerAddress(ctx context.Context, caller, address string) error
	SetRecoveryFee(ctx context.Context, caller string, fee int64) error
	SetPlanPrice(ctx context.Context, caller string, tier models.Tier, price int64) error
	SetPlanDuration(ctx context.Context, caller string, tier models.Tier, d time.Duration) error
}

// HandlerAddressRequest — тело PUT /admin/handler.
type HandlerAddressRequest struct {
	Address string `json:"address"`
}

// RecoveryFeeRequest — тело PUT /admin/recovery-fee.
type RecoveryFeeRequest struct {
	Fee int64 `json:"fee"`
}

// PriceRequest — тело PUT /admin/plans/{tier}/price.
type PriceRequest struct {
	Price int64 `json:"price"`
}

// DurationRequest — тело PUT /admin/plans/{tier}/duration.
type DurationRequest struct {
	DurationSeconds int64 `json:"duration_seconds"`
}

// Handler обрабатывает административные запросы.
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

// request — общий разбор административного запроса: вызывающий, тело и тариф из URL.
type request[T any] struct {
	caller string
	tier   models.Tier
	body   T
}

func parse[T any](w http.ResponseWriter, r *http.Request, log *slog.Logger, withTier bool) (request[T], bool) {
	var req request[T]

	caller, ok := middlewarectx.Caller(r.Context())
	if !ok {
		log.Error("caller not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return req, false
	}
	req.caller = caller

	if withTier {
		tier, err := models.ParseTier(chi.URLParam(r, "tier"))
		if err != nil {
			log.Error("unknown plan", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return req, false
		}
		req.tier = tier
	}

	if err := json.NewDecoder(r.Body).Decode(&req.body); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return req, false
	}
	return req, true
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func respond(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, data any) {
	if err != nil {
		status, body := response.FromError(err)
		log.Error("admin change rejected", sl.Err(err), slog.Int("status", status))
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}

// SetHandlerAddress обрабатывает PUT /admin/handler.
func (h *Handler) SetHandlerAddress(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.SetHandlerAddress")
	req, ok := parse[HandlerAddressRequest](w, r, log, false)
	if !ok {
		return
	}
	err := h.service.SetHandlerAddress(r.Context(), req.caller, req.body.Address)
	respond(w, r, log, err, map[string]any{"handler_address": req.body.Address})
}

// SetRecoveryFee обрабатывает PUT /admin/recovery-fee.
func (h *Handler) SetRecoveryFee(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.SetRecoveryFee")
	req, ok := parse[RecoveryFeeRequest](w, r, log, false)
	if !ok {
		return
	}
	err := h.service.SetRecoveryFee(r.Context(), req.caller, req.body.Fee)
	respond(w, r, log, err, map[string]any{"recovery_fee": req.body.Fee})
}

// SetPlanPrice обрабатывает PUT /admin/plans/{tier}/price.
func (h *Handler) SetPlanPrice(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.SetPlanPrice")
	req, ok := parse[PriceRequest](w, r, log, true)
	if !ok {
		return
	}
	err := h.service.SetPlanPrice(r.Context(), req.caller, req.tier, req.body.Price)
	respond(w, r, log, err, map[string]any{"tier": req.tier.String(), "price": req.body.Price})
}

// SetPlanDuration обрабатывает PUT /admin/plans/{tier}/duration.
func (h *Handler) SetPlanDuration(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.SetPlanDuration")
	req, ok := parse[DurationRequest](w, r, log, true)
	if !ok {
		return
	}
	d := time.Duration(req.body.DurationSeconds) * time.Second
	err := h.service.SetPlanDuration(r.Context(), req.caller, req.tier, d)
	respond(w, r, log, err, map[string]any{"tier": req.tier.String(), "duration_seconds": req.body.DurationSeconds})
}
