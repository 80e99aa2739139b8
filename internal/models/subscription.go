// Package models содержит доменные структуры, описывающие локальные записи
// о подписках, платежах и событиях платёжного провайдера.
package models

import "time"

// Subscription — локальная копия подписки у платёжного провайдера.
// Запись создаётся при первом событии с неизвестным идентификатором подписки
// и далее обновляется на месте: один идентификатор — одна строка.
type Subscription struct {
	ProviderSubscriptionID string             // Идентификатор подписки у провайдера (уникальный)
	ProviderCustomerID     string             // Идентификатор клиента-владельца у провайдера
	Status                 SubscriptionStatus // Текущий статус подписки
	CurrentPeriodEnd       time.Time          // Дата окончания оплаченного периода
	CancelAtPeriodEnd      bool               // Отмена в конце периода
	PlanPriceID            string             // Идентификатор тарифа
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Payment — запись об исходе платежа. Только добавляется, никогда не изменяется.
type Payment struct {
	ProviderInvoiceID  string    // Идентификатор счёта у провайдера (уникальный)
	ProviderCustomerID string    // Идентификатор клиента у провайдера
	Amount             int64     // Сумма в минорных единицах валюты
	Currency           string    // Код валюты
	Succeeded          bool      // Признак успешного списания
	FailureReason      *string   // Причина отказа (nil при успехе)
	CreatedAt          time.Time
}

// BillingEvent — запись аудита входящего события провайдера.
// Используется для событий без выделенной обработки и как общий след
// для сверки и разбора спорных ситуаций.
type BillingEvent struct {
	ID        int
	EventType string // Тип события в таксономии провайдера
	Raw       []byte // Исходный payload события
	CreatedAt time.Time
}

// TrialEndingNotice — сообщение для очереди уведомлений о скором окончании
// пробного периода.
type TrialEndingNotice struct {
	Email                  string    `json:"email"`
	Username               string    `json:"username"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
	TrialEndDate           time.Time `json:"trial_end_date"`
}
