// Package middlewarectx содержит HTTP middleware леджера: аутентификацию по JWT,
// Access Gate и ограничение частоты запросов.
//
// JWTMiddleware проверяет токен в заголовке Authorization и кладёт
// идентификатор вызывающего в контекст запроса. Обработчики получают его
// через Caller.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/response"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// CallerKey — ключ идентификатора вызывающего в контексте.
const CallerKey Key = "caller"

// TokenParser разбирает и проверяет JWT токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Caller возвращает идентификатор вызывающего, установленный JWTMiddleware.
func Caller(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(CallerKey).(string)
	return caller, ok && caller != ""
}

// WithCaller возвращает контекст с идентификатором вызывающего.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
// При невалидном токене отвечает 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Identity())))
		})
	}
}
