// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, роль доступа и привязку
// к клиенту платёжного провайдера. Структуры используются
// в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID              string     // Уникальный идентификатор пользователя
	Email             string     // Электронная почта
	Username          string     // Имя пользователя (уникальное)
	PasswordHash      string     // Хэш пароля пользователя
	Role              Role       // Роль доступа пользователя
	BillingCustomerID *string    // Идентификатор клиента у платёжного провайдера (nil — не привязан)
	TrialStartDate    *time.Time // Дата начала пробного периода
	CreatedAt         time.Time  // Дата создания учётной записи
	UpdatedAt         time.Time  // Дата последнего изменения
}

// EntitlementSummary описывает текущее состояние доступа пользователя,
// возвращаемое клиенту: локальная роль и статус подписки у провайдера.
type EntitlementSummary struct {
	Role                   Role    `json:"role"`
	ProviderStatus         *string `json:"provider_status,omitempty"`
	ProviderSubscriptionID *string `json:"provider_subscription_id,omitempty"`
}
