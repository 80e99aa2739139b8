// Package agent содержит контроль допуска сообщений и оркестрацию диалога
// с конвейером агентов.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/metrics"
	"github.com/magabrotheeeer/discern-api/internal/models"
)

// Причины отказа в допуске.
const (
	ReasonSubscriptionRequired = "subscription required"
	ReasonLimitReached         = "limit reached"
)

// quotaPolicy задаёт ширину окна и лимит сообщений для роли.
type quotaPolicy struct {
	window time.Duration
	limit  int
}

// Квоты по ролям. Роль admin в таблице отсутствует: её допуск не ограничен.
var quotas = map[models.Role]quotaPolicy{
	models.RoleTrial:      {window: 24 * time.Hour, limit: 25},
	models.RoleSubscriber: {window: time.Hour, limit: 25},
}

// Decision — результат проверки допуска.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"` // Заполняется только при отказе
}

// MessageCounter считает сообщения пользователя в скользящем окне.
type MessageCounter interface {
	// CountRecentUserMessages считает сообщения пользователя, отправленные
	// начиная с момента since включительно.
	CountRecentUserMessages(ctx context.Context, userUID string, since time.Time) (int, error)
}

// Admit решает, может ли пользователь отправить сообщение агенту.
// Решение принимается по уже сохранённым сообщениям, до записи нового.
// При ошибке подсчёта допуск закрыт: ошибка возвращается вызывающему.
func Admit(ctx context.Context, counter MessageCounter, userUID string, role models.Role) (Decision, error) {
	const op = "agent.Admit"

	if role == models.RoleAdmin {
		metrics.AdmissionDecisions.WithLabelValues(string(role), metrics.OutcomeAllowed).Inc()
		return Decision{Allowed: true}, nil
	}

	policy, ok := quotas[role]
	if !ok {
		metrics.AdmissionDecisions.WithLabelValues(string(role), metrics.OutcomeDenied).Inc()
		return Decision{Allowed: false, Reason: ReasonSubscriptionRequired}, nil
	}

	since := time.Now().UTC().Add(-policy.window)
	count, err := counter.CountRecentUserMessages(ctx, userUID, since)
	if err != nil {
		metrics.AdmissionDecisions.WithLabelValues(string(role), metrics.OutcomeDenied).Inc()
		return Decision{Allowed: false}, fmt.Errorf("%s: %w", op, err)
	}
	if count >= policy.limit {
		metrics.AdmissionDecisions.WithLabelValues(string(role), metrics.OutcomeDenied).Inc()
		return Decision{Allowed: false, Reason: ReasonLimitReached}, nil
	}

	metrics.AdmissionDecisions.WithLabelValues(string(role), metrics.OutcomeAllowed).Inc()
	return Decision{Allowed: true}, nil
}
