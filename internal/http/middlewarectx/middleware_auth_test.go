package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/models"
)

// Mock for auth service
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.User, string, bool, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Bool(2), args.Error(3)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	validUser := &models.User{
		UUID:     "uid-1",
		Username: "testuser",
		Role:     models.RoleTrial,
	}

	tests := []struct {
		name           string
		authHeader     string
		mockUser       *models.User
		mockRole       string
		mockValid      bool
		mockErr        error
		skipMock       bool
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "валидный токен",
			authHeader:     "Bearer good-token",
			mockUser:       validUser,
			mockRole:       "trial",
			mockValid:      true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "нет заголовка",
			authHeader:     "",
			skipMock:       true,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "не Bearer",
			authHeader:     "Basic abc",
			skipMock:       true,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "просроченный токен",
			authHeader:     "Bearer expired-token",
			mockUser:       nil,
			mockRole:       "",
			mockValid:      false,
			mockErr:        errors.New("token expired"),
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if !tt.skipMock {
				token := strings.TrimPrefix(tt.authHeader, "Bearer ")
				authMock.On("ValidateToken", mock.Anything, token).
					Return(tt.mockUser, tt.mockRole, tt.mockValid, tt.mockErr).Once()
			}

			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				assert.Equal(t, "testuser", r.Context().Value(middlewarectx.User))
				assert.Equal(t, "uid-1", r.Context().Value(middlewarectx.UserUID))
				assert.Equal(t, "trial", r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.JWTMiddleware(authMock, newNoopLogger())(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			authMock.AssertExpectations(t)
		})
	}
}
