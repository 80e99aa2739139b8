// Package cancel реализует HTTP-обработчик отмены подписки.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/http/response"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/services/billing"
)

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы отмены подписки.
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
// @Summary Отмена подписки
// @Description Запрашивает отмену подписки в конце оплаченного периода. Доступ сохраняется до конца периода.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Отмена запрошена"
// @Failure 401 {object} response.ErrorResponse "Нет авторизации"
// @Failure 404 {object} response.ErrorResponse "Нет действующей подписки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.cancel"

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

	if err := h.billingService.Cancel(r.Context(), userUID); err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			log.Info("no active subscription to cancel", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active subscription"))
			return
		}
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to cancel subscription"))
		return
	}

	log.Info("subscription cancellation requested", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OK())
}
