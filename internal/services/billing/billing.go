// Package billing содержит бизнес-логику работы с платёжным провайдером:
// привязку клиентов, оформление подписки и сверку статуса доступа.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/cache"
	"github.com/magabrotheeeer/discern-api/internal/config"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
	"github.com/magabrotheeeer/discern-api/internal/models"
	"github.com/magabrotheeeer/discern-api/internal/paymentprovider"
)

// entitlementTTL время жизни кэшированной сводки статуса подписки.
const entitlementTTL = 5 * time.Minute

// UserRepository описывает контракт для работы с пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByBillingCustomerID(ctx context.Context, customerID string) (*models.User, error)
	SetBillingCustomerID(ctx context.Context, userUID, customerID string) (string, error)
	MarkTrialStarted(ctx context.Context, userUID string) error
}

// ProviderClient описывает используемую часть API платёжного провайдера.
type ProviderClient interface {
	CreateCustomer(ctx context.Context, email string) (*paymentprovider.Customer, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]paymentprovider.Subscription, error)
	CreateCheckoutSession(ctx context.Context, reqParams paymentprovider.CreateCheckoutSessionRequest) (*paymentprovider.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*paymentprovider.PortalSession, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// EntitlementCache описывает кэш сводок статуса подписки.
type EntitlementCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует операции биллинга поверх репозитория и клиента провайдера.
type Service struct {
	users    UserRepository
	provider ProviderClient
	cache    EntitlementCache
	log      *slog.Logger
	cfg      config.Billing
}

// New создает новый экземпляр Service.
func New(users UserRepository, provider ProviderClient, entCache EntitlementCache,
	log *slog.Logger, cfg config.Billing) *Service {
	return &Service{
		users:    users,
		provider: provider,
		cache:    entCache,
		log:      log,
		cfg:      cfg,
	}
}

// EnsureCustomer возвращает идентификатор клиента у провайдера для пользователя,
// создавая клиента при первом обращении. Привязка выполняется атомарно:
// при гонке двух запросов оба получают один и тот же идентификатор.
func (s *Service) EnsureCustomer(ctx context.Context, userUID string) (string, error) {
	const op = "billing.EnsureCustomer"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.BillingCustomerID != nil {
		return *user.BillingCustomerID, nil
	}

	customer, err := s.provider.CreateCustomer(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	bound, err := s.users.SetBillingCustomerID(ctx, userUID, customer.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if bound != customer.ID {
		// Проиграли гонку: другой запрос уже привязал клиента.
		s.log.Info("customer already bound by concurrent request",
			slog.String("user_uid", userUID), slog.String("customer_id", bound))
	}
	return bound, nil
}

// ActiveSubscription возвращает первую подписку клиента, дающую доступ,
// либо nil, если такой нет.
func (s *Service) ActiveSubscription(ctx context.Context, customerID string) (*paymentprovider.Subscription, error) {
	const op = "billing.ActiveSubscription"

	subs, err := s.provider.ListSubscriptions(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range subs {
		if models.SubscriptionStatus(subs[i].Status).Entitling() {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// StartTrial оформляет пробный период: создает сессию оформления подписки
// с отложенным списанием. Если у пользователя уже есть действующая подписка,
// вместо оформления возвращается ссылка на портал самообслуживания.
func (s *Service) StartTrial(ctx context.Context, userUID string) (string, error) {
	const op = "billing.StartTrial"

	customerID, err := s.EnsureCustomer(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	active, err := s.ActiveSubscription(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if active != nil {
		portal, err := s.provider.CreatePortalSession(ctx, customerID, s.cfg.SuccessURL)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return portal.URL, nil
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutSessionRequest{
		CustomerID:          customerID,
		PriceID:             s.cfg.PriceID,
		TrialPeriodDays:     s.cfg.TrialDays,
		SuccessURL:          s.cfg.SuccessURL,
		CancelURL:           s.cfg.CancelURL,
		AllowPromotionCodes: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Предварительная запись делается только после успешного создания
	// сессии: при отказе провайдера учётная запись остаётся нетронутой.
	// Запись не авторитетна, её подтвердит первое событие провайдера.
	if err := s.users.MarkTrialStarted(ctx, userUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return session.URL, nil
}

// SubscribeNow оформляет платную подписку без пробного периода:
// списание происходит сразу после подтверждения оформления.
func (s *Service) SubscribeNow(ctx context.Context, userUID string) (string, error) {
	const op = "billing.SubscribeNow"

	customerID, err := s.EnsureCustomer(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	active, err := s.ActiveSubscription(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if active != nil {
		portal, err := s.provider.CreatePortalSession(ctx, customerID, s.cfg.SuccessURL)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return portal.URL, nil
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutSessionRequest{
		CustomerID:          customerID,
		PriceID:             s.cfg.PriceID,
		TrialEnd:            "now",
		SuccessURL:          s.cfg.SuccessURL,
		CancelURL:           s.cfg.CancelURL,
		AllowPromotionCodes: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return session.URL, nil
}

// Cancel запрашивает отмену действующей подписки в конце оплаченного периода.
// Доступ сохраняется до конца периода, роль изменится по событию провайдера.
func (s *Service) Cancel(ctx context.Context, userUID string) error {
	const op = "billing.Cancel"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.BillingCustomerID == nil {
		return fmt.Errorf("%s: %w", op, ErrNoSubscription)
	}

	active, err := s.ActiveSubscription(ctx, *user.BillingCustomerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if active == nil {
		return fmt.Errorf("%s: %w", op, ErrNoSubscription)
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, active.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PortalURL возвращает ссылку на портал самообслуживания провайдера.
func (s *Service) PortalURL(ctx context.Context, userUID string) (string, error) {
	const op = "billing.PortalURL"

	customerID, err := s.EnsureCustomer(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	portal, err := s.provider.CreatePortalSession(ctx, customerID, s.cfg.SuccessURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return portal.URL, nil
}

// Status возвращает сводку статуса доступа пользователя: локальную роль
// и, если есть привязка, статус подписки у провайдера. Сводка кэшируется;
// недоступность провайдера не мешает отдать локальную роль.
func (s *Service) Status(ctx context.Context, userUID string) (*models.EntitlementSummary, error) {
	const op = "billing.Status"

	key := cache.EntitlementKey(userUID)
	var cached models.EntitlementSummary
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("entitlement cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := models.EntitlementSummary{Role: user.Role}
	if user.BillingCustomerID != nil {
		active, err := s.ActiveSubscription(ctx, *user.BillingCustomerID)
		if err != nil {
			s.log.Warn("provider unavailable, returning local role only", sl.Err(err))
		} else if active != nil {
			summary.ProviderStatus = &active.Status
			summary.ProviderSubscriptionID = &active.ID
		}
	}

	if err := s.cache.Set(key, summary, entitlementTTL); err != nil {
		s.log.Warn("entitlement cache write failed", sl.Err(err))
	}
	return &summary, nil
}
