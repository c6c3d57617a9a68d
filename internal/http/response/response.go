// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-ledger/internal/services/ledger"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

var statusByError = []struct {
	err    error
	status int
}{
	{ledger.ErrInvalidIdentity, http.StatusBadRequest},
	{ledger.ErrInvalidPlan, http.StatusBadRequest},
	{ledger.ErrInvalidAmount, http.StatusBadRequest},
	{ledger.ErrSelfGiftRejected, http.StatusBadRequest},
	{ledger.ErrPaymentMismatch, http.StatusPaymentRequired},
	{ledger.ErrPaymentTransferFailed, http.StatusBadGateway},
	{ledger.ErrNotAuthorized, http.StatusForbidden},
	{ledger.ErrKeyMismatch, http.StatusForbidden},
	{ledger.ErrUnknownSubscriber, http.StatusNotFound},
	{ledger.ErrNoOpConfigChange, http.StatusConflict},
	{ledger.ErrReentrantCall, http.StatusConflict},
}

// FromError сопоставляет ошибку леджера HTTP-статусу и телу ответа.
// Неизвестные ошибки не раскрываются клиенту.
func FromError(err error) (int, ErrorResponse) {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status, Error(e.err.Error())
		}
	}
	return http.StatusInternalServerError, Error("internal error")
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "gte", "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "nefield":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must differ from %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
