package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-ledger/internal/services/ledger"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ledger.ErrInvalidIdentity, http.StatusBadRequest},
		{fmt.Errorf("%w: monthly is not configured", ledger.ErrInvalidPlan), http.StatusBadRequest},
		{ledger.ErrSelfGiftRejected, http.StatusBadRequest},
		{fmt.Errorf("%w: paid 1, price 2", ledger.ErrPaymentMismatch), http.StatusPaymentRequired},
		{fmt.Errorf("ledger.credit: %w", ledger.ErrPaymentTransferFailed), http.StatusBadGateway},
		{ledger.ErrNotAuthorized, http.StatusForbidden},
		{ledger.ErrKeyMismatch, http.StatusForbidden},
		{ledger.ErrUnknownSubscriber, http.StatusNotFound},
		{ledger.ErrNoOpConfigChange, http.StatusConflict},
		{ledger.ErrReentrantCall, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, body := FromError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, StatusError, body.Status)
			assert.NotContains(t, body.Error, "connection reset")
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Plan   string `validate:"required"`
		Amount int64  `validate:"gte=0"`
	}

	err := validator.New().Struct(request{Amount: -1})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	resp := ValidationError(verrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Plan is a required field")
	assert.Contains(t, resp.Error, "field Amount must be at least 0")
}
