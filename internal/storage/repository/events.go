package repository

import (
	"context"
	"fmt"
)

// SaveBillingEvent сохраняет сырое событие биллинга в журнал аудита.
// Журнал только дописывается, записи не изменяются и не удаляются.
func (s *Storage) SaveBillingEvent(ctx context.Context, eventType string, raw []byte) error {
	const op = "storage.SaveBillingEvent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO billing_events (event_type, raw, created_at)
			  VALUES ($1, $2, now())`
	if _, err := s.DB.ExecContext(ctx, query, eventType, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
