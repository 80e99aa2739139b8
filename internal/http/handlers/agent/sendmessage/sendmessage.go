// Package sendmessage реализует HTTP-обработчик отправки сообщения агенту.
package sendmessage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/http/response"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/models"
	agentsvc "github.com/magabrotheeeer/discern-api/internal/services/agent"
	"github.com/magabrotheeeer/discern-api/internal/storage/repository"
)

// Service описывает интерфейс диалогового сервиса.
type Service interface {
	SendMessage(ctx context.Context, user *models.User,
		req models.SendMessageRequest) (*agentsvc.SendMessageResult, error)
}

// Handler обрабатывает HTTP-запросы на отправку сообщения агенту.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить сообщение агенту
// @Description Принимает сообщение пользователя и возвращает ответ конвейера агентов.
// @Description Без conversation_id создаётся новая беседа.
// @Tags Agent
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.SendMessageRequest true "Текст сообщения и (опционально) беседа"
// @Success 200 {object} response.Response "Ответ агента и идентификатор беседы"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Допуск закрыт: нет подписки или исчерпана квота"
// @Failure 404 {object} response.ErrorResponse "Беседа не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /agent/message [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.agent.sendmessage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok1 := r.Context().Value(middlewarectx.User).(string)
	userUID, ok2 := r.Context().Value(middlewarectx.UserUID).(string)
	role, ok3 := r.Context().Value(middlewarectx.Role).(string)
	if !ok1 || !ok2 || !ok3 {
		log.Error("failed to get user from context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not authenticated"))
		return
	}

	var req models.SendMessageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErrs))
			return
		}
		log.Error("failed to validate request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	user := &models.User{
		UUID:     userUID,
		Username: username,
		Role:     models.Role(role),
	}

	result, err := h.service.SendMessage(r.Context(), user, req)
	if err != nil {
		var denied *agentsvc.AdmissionDeniedError
		switch {
		case errors.As(err, &denied):
			log.Info("admission denied",
				slog.String("user_uid", userUID),
				slog.String("reason", denied.Decision.Reason))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error(denied.Decision.Reason))
		case errors.Is(err, agentsvc.ErrForeignConversation), errors.Is(err, repository.ErrNotFound):
			log.Error("conversation not found", slog.String("user_uid", userUID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("conversation not found"))
		default:
			log.Error("failed to send message", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to send message"))
		}
		return
	}

	log.Info("message processed", slog.String("conversation_uid", result.ConversationUID))
	render.JSON(w, r, response.OKWithData(result))
}
