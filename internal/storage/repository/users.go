package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/discern-api/internal/models"
)

const userColumns = `uid, email, username, password_hash, role,
			  billing_customer_id, trial_start_date, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var billingCustomerID sql.NullString
	var trialStartDate sql.NullTime
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &billingCustomerID, &trialStartDate, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if billingCustomerID.Valid {
		u.BillingCustomerID = &billingCustomerID.String
	}
	if trialStartDate.Valid {
		u.TrialStartDate = &trialStartDate.Time
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByBillingCustomerID возвращает пользователя по идентификатору
// клиента у платёжного провайдера.
func (s *Storage) GetUserByBillingCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.GetUserByBillingCustomerID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE billing_customer_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserRole атомарно меняет роль пользователя с from на to.
// Роль admin условие не пропускает никогда. Возвращает true, если строка
// была изменена; false — если роль уже не равна from (проигранная гонка
// или повторная доставка события).
func (s *Storage) UpdateUserRole(ctx context.Context, userUID string, from, to models.Role, startTrial bool) (bool, error) {
	const op = "storage.UpdateUserRole"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET role = $3,
			      trial_start_date = CASE WHEN $4 THEN now() ELSE trial_start_date END,
			      updated_at = now()
			  WHERE uid = $1 AND role = $2 AND role <> 'admin'`
	result, err := s.DB.ExecContext(ctx, query, userUID, from, to, startTrial)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}

// MarkTrialStarted выполняет предварительную запись пробного периода при
// инициировании оформления: роль trial и дата начала. Запись не авторитетна
// и будет подтверждена (или заменена) первым событием провайдера.
// Роль admin никогда не перезаписывается.
func (s *Storage) MarkTrialStarted(ctx context.Context, userUID string) error {
	const op = "storage.MarkTrialStarted"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET role = 'trial', trial_start_date = now(), updated_at = now()
			  WHERE uid = $1 AND role <> 'admin'`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetBillingCustomerID привязывает идентификатор платёжного клиента к
// пользователю, только если привязки ещё нет, и возвращает сохранённое
// значение. При одновременных вызовах второй увидит и вернёт привязку
// первого. Попытка привязать клиента, занятого другой учётной записью,
// возвращает ErrConflict.
func (s *Storage) SetBillingCustomerID(ctx context.Context, userUID, customerID string) (string, error) {
	const op = "storage.SetBillingCustomerID"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET billing_customer_id = $2, updated_at = now()
			  WHERE uid = $1 AND billing_customer_id IS NULL`
	result, err := s.DB.ExecContext(ctx, query, userUID, customerID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return customerID, nil
	}

	// Привязка уже есть: возвращаем её.
	var stored sql.NullString
	if err := s.DB.QueryRowContext(ctx,
		`SELECT billing_customer_id FROM users WHERE uid = $1`, userUID).Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !stored.Valid {
		return "", fmt.Errorf("%s: billing customer id is not set", op)
	}
	return stored.String, nil
}

// TouchUserByBillingCustomerID обновляет updated_at пользователя по
// идентификатору платёжного клиента. Возвращает true, если пользователь найден.
func (s *Storage) TouchUserByBillingCustomerID(ctx context.Context, customerID string) (bool, error) {
	const op = "storage.TouchUserByBillingCustomerID"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET updated_at = now() WHERE billing_customer_id = $1`, customerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}
