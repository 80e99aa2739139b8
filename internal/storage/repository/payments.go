package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/discern-api/internal/models"
)

// SavePayment записывает результат оплаты счёта. Ключ — идентификатор счёта
// у провайдера: повторная доставка события не создаёт дубликат строки.
func (s *Storage) SavePayment(ctx context.Context, p models.Payment) error {
	const op = "storage.SavePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (provider_invoice_id, provider_customer_id,
			      amount, currency, succeeded, failure_reason, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now())
			  ON CONFLICT (provider_invoice_id) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query,
		p.ProviderInvoiceID, p.ProviderCustomerID, p.Amount,
		p.Currency, p.Succeeded, p.FailureReason)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPayments возвращает историю оплат клиента, новые записи первыми.
func (s *Storage) ListPayments(ctx context.Context, providerCustomerID string) ([]models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT provider_invoice_id, provider_customer_id, amount,
			      currency, succeeded, failure_reason, created_at
			  FROM payments
			  WHERE provider_customer_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, providerCustomerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ProviderInvoiceID, &p.ProviderCustomerID, &p.Amount,
			&p.Currency, &p.Succeeded, &p.FailureReason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
