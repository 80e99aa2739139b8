// Package status реализует HTTP-обработчик сводки статуса подписки пользователя.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/http/response"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/models"
)

// Service описывает интерфейс бизнес-логики статуса подписки.
type Service interface {
	Status(ctx context.Context, userUID string) (*models.EntitlementSummary, error)
}

// Handler обрабатывает HTTP-запросы статуса подписки.
type Handler struct {
	log            *slog.Logger
	billingService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, billingService Service) *Handler {
	return &Handler{
		log:            log,
		billingService: billingService,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает локальную роль пользователя и статус подписки у провайдера.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.EntitlementSummary "Сводка статуса"
// @Failure 401 {object} response.ErrorResponse "Нет авторизации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	summary, err := h.billingService.Status(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get entitlement status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get status"))
		return
	}

	render.JSON(w, r, response.OKWithData(summary))
}
