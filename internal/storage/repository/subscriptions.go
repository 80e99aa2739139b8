package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/discern-api/internal/models"
)

// UpsertSubscription вставляет или обновляет локальную копию подписки.
// Ключ — идентификатор подписки у провайдера: повторная доставка события
// сходится к одному и тому же состоянию строки.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (provider_subscription_id, provider_customer_id,
			      status, current_period_end, cancel_at_period_end, plan_price_id,
			      created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			  ON CONFLICT (provider_subscription_id) DO UPDATE
			  SET provider_customer_id = EXCLUDED.provider_customer_id,
			      status = EXCLUDED.status,
			      current_period_end = EXCLUDED.current_period_end,
			      cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			      plan_price_id = EXCLUDED.plan_price_id,
			      updated_at = now()`
	_, err := s.DB.ExecContext(ctx, query,
		sub.ProviderSubscriptionID, sub.ProviderCustomerID, sub.Status,
		sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd, sub.PlanPriceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает локальную копию подписки по её идентификатору
// у провайдера.
func (s *Storage) GetSubscription(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT provider_subscription_id, provider_customer_id, status,
			      current_period_end, cancel_at_period_end, plan_price_id,
			      created_at, updated_at
			  FROM subscriptions
			  WHERE provider_subscription_id = $1`
	var sub models.Subscription
	err := s.DB.QueryRowContext(ctx, query, providerSubscriptionID).Scan(
		&sub.ProviderSubscriptionID, &sub.ProviderCustomerID, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd, &sub.PlanPriceID,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}
