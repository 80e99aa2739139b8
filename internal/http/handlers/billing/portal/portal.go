// Package portal реализует HTTP-обработчик перехода в портал самообслуживания
// платёжного провайдера.
package portal

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

// Service описывает интерфейс бизнес-логики получения ссылки на портал.
type Service interface {
	PortalURL(ctx context.Context, userUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы перехода в портал.
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
// @Summary Портал самообслуживания
// @Description Возвращает ссылку на портал провайдера для управления подпиской и платёжными данными.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Ссылка на портал"
// @Failure 401 {object} response.ErrorResponse "Нет авторизации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"

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

	url, err := h.billingService.PortalURL(r.Context(), userUID)
	if err != nil {
		log.Error("failed to create portal session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create portal session"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"portal_url": url,
	}))
}
