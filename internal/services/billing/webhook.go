package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/cache"
	"github.com/magabrotheeeer/discern-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/metrics"
	"github.com/magabrotheeeer/discern-api/internal/models"
	"github.com/magabrotheeeer/discern-api/internal/paymentprovider"
	"github.com/magabrotheeeer/discern-api/internal/storage/repository"
)

// WebhookUserRepository описывает операции с пользователями, нужные сверке.
type WebhookUserRepository interface {
	GetUserByBillingCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userUID string, from, to models.Role, startTrial bool) (bool, error)
	TouchUserByBillingCustomerID(ctx context.Context, customerID string) (bool, error)
}

// WebhookRepository описывает операции с локальными записями биллинга.
type WebhookRepository interface {
	UpsertSubscription(ctx context.Context, sub models.Subscription) error
	SavePayment(ctx context.Context, p models.Payment) error
	SaveBillingEvent(ctx context.Context, eventType string, raw []byte) error
}

// NoticePublisher публикует уведомления в очередь.
type NoticePublisher interface {
	Publish(exchange, routingKey string, message any) error
}

// WebhookService сверяет события платёжного провайдера с локальным состоянием.
// События приходят как минимум один раз: каждая ветка обработки идемпотентна,
// повторная доставка не меняет итоговое состояние.
type WebhookService struct {
	users     WebhookUserRepository
	repo      WebhookRepository
	cache     EntitlementCache
	publisher NoticePublisher
	log       *slog.Logger
}

// NewWebhookService создает новый экземпляр WebhookService.
func NewWebhookService(users WebhookUserRepository, repo WebhookRepository,
	entCache EntitlementCache, publisher NoticePublisher, log *slog.Logger) *WebhookService {
	return &WebhookService{
		users:     users,
		repo:      repo,
		cache:     entCache,
		publisher: publisher,
		log:       log,
	}
}

// ProcessEvent обрабатывает одно webhook-событие провайдера.
// Ошибка означает, что провайдер должен повторить доставку.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *paymentprovider.Event) error {
	const op = "billing.ProcessEvent"

	obj, err := event.Object()
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	switch event.Type {
	case paymentprovider.EventCheckoutCompleted:
		return s.handleCheckout(ctx, event, obj.(*paymentprovider.CheckoutObject))
	case paymentprovider.EventSubscriptionCreated, paymentprovider.EventSubscriptionUpdated:
		return s.handleSubscriptionChange(ctx, event, obj.(*paymentprovider.Subscription),
			models.LifecycleSubscriptionChange)
	case paymentprovider.EventSubscriptionDeleted:
		return s.handleSubscriptionChange(ctx, event, obj.(*paymentprovider.Subscription),
			models.LifecycleSubscriptionDeleted)
	case paymentprovider.EventInvoicePaymentOK, paymentprovider.EventInvoicePaymentFailed:
		return s.handleInvoice(ctx, event, obj.(*paymentprovider.InvoiceObject))
	case paymentprovider.EventTrialWillEnd:
		return s.handleTrialWillEnd(ctx, event, obj.(*paymentprovider.Subscription))
	default:
		// Неизвестный тип: фиксируем в аудите и подтверждаем доставку.
		if err := s.repo.SaveBillingEvent(ctx, string(event.Type), event.Raw); err != nil {
			metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
			return fmt.Errorf("%s: %w", op, err)
		}
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeNoop).Inc()
		return nil
	}
}

// handleCheckout обрабатывает завершение оформления заказа. Роль не меняется:
// провайдер подтвердит подписку отдельным событием.
func (s *WebhookService) handleCheckout(ctx context.Context, event *paymentprovider.Event,
	obj *paymentprovider.CheckoutObject) error {
	const op = "billing.handleCheckout"

	found, err := s.users.TouchUserByBillingCustomerID(ctx, obj.CustomerID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return s.recordOrphan(ctx, event, obj.CustomerID)
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeNoop).Inc()
	return nil
}

// handleSubscriptionChange сверяет событие подписки: пересчитывает роль
// владельца и всегда обновляет локальную копию подписки, даже если владелец
// не найден. Повторная доставка того же события роли не меняет.
func (s *WebhookService) handleSubscriptionChange(ctx context.Context, event *paymentprovider.Event,
	sub *paymentprovider.Subscription, kind models.LifecycleKind) error {
	const op = "billing.handleSubscriptionChange"

	status := models.SubscriptionStatus(sub.Status)
	if kind == models.LifecycleSubscriptionDeleted {
		status = models.StatusCanceled
	}

	local := models.Subscription{
		ProviderSubscriptionID: sub.ID,
		ProviderCustomerID:     sub.CustomerID,
		Status:                 status,
		CurrentPeriodEnd:       time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		PlanPriceID:            sub.PlanPriceID(),
	}
	if err := s.repo.UpsertSubscription(ctx, local); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByBillingCustomerID(ctx, sub.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Владелец не найден: копия подписки сохранена, событие уходит в аудит.
			return s.recordOrphan(ctx, event, sub.CustomerID)
		}
		// Сбой хранилища не подтверждаем: провайдер повторит доставку.
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	next, changed := models.NextRole(user.Role, kind, models.SubscriptionStatus(sub.Status))
	if !changed {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeNoop).Inc()
		return nil
	}

	startTrial := next == models.RoleTrial && user.TrialStartDate == nil
	applied, err := s.users.UpdateUserRole(ctx, user.UUID, user.Role, next, startTrial)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		// Роль уже изменена параллельной доставкой.
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeNoop).Inc()
		return nil
	}

	if err := s.cache.Invalidate(cache.EntitlementKey(user.UUID)); err != nil {
		s.log.Warn("failed to invalidate entitlement cache", sl.Err(err))
	}

	s.log.Info("user role updated",
		slog.String("user_uid", user.UUID),
		slog.String("from", string(user.Role)),
		slog.String("to", string(next)),
		slog.String("event_type", string(event.Type)))
	metrics.RoleTransitions.WithLabelValues(string(user.Role), string(next)).Inc()
	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeApplied).Inc()
	return nil
}

// handleInvoice записывает исход платежа. Повторная доставка события
// не создает дубликат записи.
func (s *WebhookService) handleInvoice(ctx context.Context, event *paymentprovider.Event,
	inv *paymentprovider.InvoiceObject) error {
	const op = "billing.handleInvoice"

	amount := inv.AmountPaid
	if !inv.Paid {
		amount = inv.AmountDue
	}
	payment := models.Payment{
		ProviderInvoiceID:  inv.ID,
		ProviderCustomerID: inv.CustomerID,
		Amount:             amount,
		Currency:           inv.Currency,
		Succeeded:          inv.Paid,
		FailureReason:      inv.FailureReason(),
	}
	if err := s.repo.SavePayment(ctx, payment); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeApplied).Inc()
	return nil
}

// handleTrialWillEnd ставит уведомление о скором конце пробного периода
// в очередь и фиксирует событие в аудите.
func (s *WebhookService) handleTrialWillEnd(ctx context.Context, event *paymentprovider.Event,
	sub *paymentprovider.Subscription) error {
	const op = "billing.handleTrialWillEnd"

	if err := s.repo.SaveBillingEvent(ctx, string(event.Type), event.Raw); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByBillingCustomerID(ctx, sub.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.recordOrphan(ctx, event, sub.CustomerID)
		}
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	notice := models.TrialEndingNotice{
		Email:                  user.Email,
		Username:               user.Username,
		ProviderSubscriptionID: sub.ID,
		TrialEndDate:           time.Unix(sub.TrialEnd, 0).UTC(),
	}
	if err := s.publisher.Publish(rabbitmq.NotificationsExchange,
		rabbitmq.TrialEndingRoutingKey, notice); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeApplied).Inc()
	return nil
}

// recordOrphan фиксирует событие без известного владельца в аудите.
// Доставка подтверждается: повторная отправка того же события владельца
// не добавит.
func (s *WebhookService) recordOrphan(ctx context.Context, event *paymentprovider.Event,
	customerID string) error {
	const op = "billing.recordOrphan"

	s.log.Warn("billing event for unknown customer",
		slog.String("event_type", string(event.Type)),
		slog.String("customer_id", customerID))
	if err := s.repo.SaveBillingEvent(ctx, string(event.Type), event.Raw); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.OutcomeOrphaned).Inc()
	return nil
}
