// Package models содержит закрытый перечислимый тип роли пользователя
// и таблицу переходов ролей по событиям жизненного цикла подписки.
// Все изменения роли в системе проходят через функцию NextRole:
// прямые записи роли из других компонентов запрещены.
package models

// Role определяет уровень доступа учётной записи.
type Role string

const (
	// RoleAdmin — служебная роль, не изменяется автоматикой.
	RoleAdmin Role = "admin"
	// RoleTrial — пробный период.
	RoleTrial Role = "trial"
	// RoleSubscriber — действующая оплаченная подписка.
	RoleSubscriber Role = "subscriber"
	// RoleUnsubscribed — доступ к платным функциям закрыт.
	RoleUnsubscribed Role = "unsubscribed"
)

// SubscriptionStatus — статус подписки в терминах платёжного провайдера.
type SubscriptionStatus string

const (
	// StatusTrialing — подписка в пробном периоде.
	StatusTrialing SubscriptionStatus = "trialing"
	// StatusActive — подписка оплачена и активна.
	StatusActive SubscriptionStatus = "active"
	// StatusPastDue — платёж просрочен, провайдер повторяет попытки списания.
	StatusPastDue SubscriptionStatus = "past_due"
	// StatusCanceled — подписка отменена.
	StatusCanceled SubscriptionStatus = "canceled"
	// StatusUnpaid — попытки списания исчерпаны.
	StatusUnpaid SubscriptionStatus = "unpaid"
)

// Entitling сообщает, даёт ли статус подписки право доступа к сервису.
// past_due считается действующим: провайдер ещё пытается провести платёж.
func (s SubscriptionStatus) Entitling() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue:
		return true
	default:
		return false
	}
}

// LifecycleKind — вид события жизненного цикла, влияющий на роль.
type LifecycleKind string

const (
	// LifecycleSubscriptionChange — создание или обновление подписки.
	LifecycleSubscriptionChange LifecycleKind = "subscription_change"
	// LifecycleSubscriptionDeleted — удаление подписки у провайдера.
	LifecycleSubscriptionDeleted LifecycleKind = "subscription_deleted"
	// LifecycleCheckoutCompleted — завершение оформления заказа.
	LifecycleCheckoutCompleted LifecycleKind = "checkout_completed"
)

// NextRole вычисляет новую роль по текущей роли и событию подписки.
// Возвращает (роль, true), если роль должна измениться, и (текущая, false) —
// если событие роль не затрагивает.
//
// Правила:
//   - роль admin никогда не понижается автоматикой;
//   - checkout_completed роль не меняет: подтверждением служит последующее
//     событие подписки, а не факт оформления заказа;
//   - past_due — льготный период, роль не меняется;
//   - canceled, unpaid и удаление подписки переводят в unsubscribed.
func NextRole(current Role, kind LifecycleKind, status SubscriptionStatus) (Role, bool) {
	if current == RoleAdmin {
		return current, false
	}
	switch kind {
	case LifecycleSubscriptionChange:
		switch status {
		case StatusTrialing:
			return RoleTrial, current != RoleTrial
		case StatusActive:
			return RoleSubscriber, current != RoleSubscriber
		case StatusCanceled, StatusUnpaid:
			return RoleUnsubscribed, current != RoleUnsubscribed
		default:
			return current, false
		}
	case LifecycleSubscriptionDeleted:
		return RoleUnsubscribed, current != RoleUnsubscribed
	default:
		return current, false
	}
}
