package status

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-ledger/internal/services/ledger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) IsActive(ctx context.Context, caller string) (bool, error) {
	args := m.Called(ctx, caller)
	return args.Bool(0), args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		active         bool
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "active", active: true, expectedStatus: http.StatusOK, expectedBody: `"active":true`},
		{name: "expired", active: false, expectedStatus: http.StatusOK, expectedBody: `"active":false`},
		{name: "access denied", err: ledger.ErrNotAuthorized, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("IsActive", mock.Anything, "0xalice").Return(tt.active, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/active", nil)
			req = req.WithContext(middlewarectx.WithCaller(req.Context(), "0xalice"))
			w := httptest.NewRecorder()

			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
