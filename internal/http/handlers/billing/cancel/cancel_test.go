package cancel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/services/billing"
)

type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) Cancel(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCancelHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		mockErr        error
		expectCall     bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "cancellation requested",
			userUID:        "uid-1",
			expectCall:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "no active subscription",
			userUID:        "uid-1",
			mockErr:        billing.ErrNoSubscription,
			expectCall:     true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "no active subscription",
		},
		{
			name:           "no user in context",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "user identification missing",
		},
		{
			name:           "provider error",
			userUID:        "uid-1",
			mockErr:        errors.New("provider unavailable"),
			expectCall:     true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to cancel subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			billingMock := new(BillingServiceMock)
			if tt.expectCall {
				billingMock.On("Cancel", mock.Anything, tt.userUID).
					Return(tt.mockErr).Once()
			}

			handler := New(newNoopLogger(), billingMock)

			req := httptest.NewRequest(http.MethodPost, "/billing/cancel", nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
			}

			billingMock.AssertExpectations(t)
		})
	}
}
