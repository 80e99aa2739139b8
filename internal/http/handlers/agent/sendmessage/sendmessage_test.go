package sendmessage

import (
	"bytes"
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
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/models"
	agentsvc "github.com/magabrotheeeer/discern-api/internal/services/agent"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SendMessage(ctx context.Context, user *models.User,
	req models.SendMessageRequest) (*agentsvc.SendMessageResult, error) {
	args := m.Called(ctx, user, req)
	if res, ok := args.Get(0).(*agentsvc.SendMessageResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func newRequest(t *testing.T, body string, authed bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/message", bytes.NewBufferString(body))
	if authed {
		ctx := context.WithValue(req.Context(), middlewarectx.User, "alice")
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
		ctx = context.WithValue(ctx, middlewarectx.Role, "subscriber")
		req = req.WithContext(ctx)
	}
	return req
}

func TestServeHTTP(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		authed       bool
		serviceRes   *agentsvc.SendMessageResult
		serviceErr   error
		expectCall   bool
		expectedCode int
	}{
		{
			name:   "success new conversation",
			body:   `{"content":"Hello"}`,
			authed: true,
			serviceRes: &agentsvc.SendMessageResult{
				ConversationUID: "conv-1",
				Response:        "Hi there",
			},
			expectCall:   true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "no user in context",
			body:         `{"content":"Hello"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "empty content",
			body:         `{"content":""}`,
			authed:       true,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "malformed conversation id",
			body:         `{"content":"Hello","conversation_id":"not-a-uuid"}`,
			authed:       true,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid json",
			body:         `{bad`,
			authed:       true,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "quota exhausted",
			body:   `{"content":"Hello"}`,
			authed: true,
			serviceErr: &agentsvc.AdmissionDeniedError{
				Decision: agentsvc.Decision{Reason: agentsvc.ReasonLimitReached},
			},
			expectCall:   true,
			expectedCode: http.StatusForbidden,
		},
		{
			name:   "no subscription",
			body:   `{"content":"Hello"}`,
			authed: true,
			serviceErr: &agentsvc.AdmissionDeniedError{
				Decision: agentsvc.Decision{Reason: agentsvc.ReasonSubscriptionRequired},
			},
			expectCall:   true,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "foreign conversation",
			body:         `{"content":"Hello","conversation_id":"3f1e8a52-6d0b-4f4e-9b1a-2c8d5e7f9a01"}`,
			authed:       true,
			serviceErr:   agentsvc.ErrForeignConversation,
			expectCall:   true,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "service failure",
			body:         `{"content":"Hello"}`,
			authed:       true,
			serviceErr:   errors.New("runner unavailable"),
			expectCall:   true,
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			if tt.expectCall {
				service.On("SendMessage", mock.Anything,
					mock.MatchedBy(func(u *models.User) bool {
						return u.UUID == "uid-1" && u.Username == "alice" && u.Role == models.RoleSubscriber
					}),
					mock.AnythingOfType("models.SendMessageRequest")).
					Return(tt.serviceRes, tt.serviceErr)
			}

			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			handler := New(log, service)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequest(t, tt.body, tt.authed))

			assert.Equal(t, tt.expectedCode, rr.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestServeHTTP_DeniedReasonInBody(t *testing.T) {
	service := new(ServiceMock)
	service.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &agentsvc.AdmissionDeniedError{
			Decision: agentsvc.Decision{Reason: agentsvc.ReasonLimitReached},
		})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rr := httptest.NewRecorder()
	New(log, service).ServeHTTP(rr, newRequest(t, `{"content":"Hello"}`, true))

	require.Equal(t, http.StatusForbidden, rr.Code)

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Error", resp.Status)
	assert.Equal(t, agentsvc.ReasonLimitReached, resp.Error)
}
