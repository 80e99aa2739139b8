// Package webhook реализует HTTP-обработчик входящих событий платёжного
// провайдера. Тело запроса подписано HMAC-SHA256: события без валидной
// подписи отклоняются до разбора.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/paymentprovider"
)

// Service описывает интерфейс сверки событий провайдера.
type Service interface {
	ProcessEvent(ctx context.Context, event *paymentprovider.Event) error
}

// Handler обрабатывает HTTP-запросы webhook провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает события провайдера. Ответ 2xx подтверждает доставку; при ошибке провайдер повторит отправку.
// @Tags Billing
// @Accept  json
// @Success 200 "Событие обработано"
// @Failure 400 "Некорректное тело события"
// @Failure 401 "Невалидная подпись"
// @Failure 500 "Ошибка обработки, доставка будет повторена"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := paymentprovider.ParseEvent(body)
	if err != nil {
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err),
			slog.String("event_type", string(event.Type)))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event_type", string(event.Type)), slog.String("event_id", event.ID))
	w.WriteHeader(http.StatusOK)
}
