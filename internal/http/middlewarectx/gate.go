package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
)

// GateChecker проверяет право вызывающего на операции только для подписчиков.
type GateChecker interface {
	Check(ctx context.Context, caller string) error
}

// AccessGateMiddleware пропускает запрос, только если вызывающий прошёл Access Gate.
// Должен стоять после JWTMiddleware.
func AccessGateMiddleware(log *slog.Logger, gate GateChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(
				slog.String("op", "middlewarectx.AccessGateMiddleware"),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			caller, ok := Caller(r.Context())
			if !ok {
				log.Error("caller identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("caller identification missing"))
				return
			}

			if err := gate.Check(r.Context(), caller); err != nil {
				status, body := response.FromError(err)
				if status == http.StatusInternalServerError {
					log.Error("access gate check failed", sl.Err(err))
				} else {
					log.Info("access denied", slog.String("caller", caller))
				}
				render.Status(r, status)
				render.JSON(w, r, body)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
