// Package starttrial реализует HTTP-обработчик запуска пробного периода.
package starttrial

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discern-api/internal/http/response"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики запуска пробного периода.
type Service interface {
	StartTrial(ctx context.Context, userUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы запуска пробного периода.
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
// @Summary Запуск пробного периода
// @Description Создает сессию оформления подписки с пробным периодом и возвращает ссылку на оплату.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Ссылка на оформление"
// @Failure 401 {object} response.ErrorResponse "Нет авторизации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/trial [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.starttrial"

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

	url, err := h.billingService.StartTrial(r.Context(), userUID)
	if err != nil {
		log.Error("failed to start trial", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start trial"))
		return
	}

	log.Info("trial checkout session created", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"checkout_url": url,
	}))
}
