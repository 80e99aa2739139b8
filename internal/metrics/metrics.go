// Package metrics содержит счётчики Prometheus для событий биллинга
// и решений о допуске сообщений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents считает обработанные события биллинга
	// по типу события и результату обработки.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discern",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Обработанные события платёжного провайдера по типу и результату",
		},
		[]string{"event_type", "outcome"},
	)

	// AdmissionDecisions считает решения о допуске сообщений по роли
	// пользователя и итогу проверки.
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discern",
			Subsystem: "agent",
			Name:      "admission_decisions_total",
			Help:      "Решения о допуске сообщений агенту по роли и итогу",
		},
		[]string{"role", "outcome"},
	)

	// RoleTransitions считает переходы ролей пользователей,
	// вызванные событиями биллинга.
	RoleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discern",
			Subsystem: "billing",
			Name:      "role_transitions_total",
			Help:      "Переходы ролей пользователей по исходной и новой роли",
		},
		[]string{"from", "to"},
	)
)

// Результаты обработки события биллинга.
const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeOrphaned = "orphaned"
	OutcomeError    = "error"
)

// Итоги проверки допуска.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)
