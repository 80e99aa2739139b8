// Package paymentprovider содержит типы запросов и ответов API платёжного провайдера.
package paymentprovider

// Customer — клиент у платёжного провайдера.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Price — тариф внутри позиции подписки.
type Price struct {
	ID string `json:"id"`
}

// SubscriptionItem — позиция подписки.
type SubscriptionItem struct {
	Price Price `json:"price"`
}

// Subscription — подписка у платёжного провайдера.
type Subscription struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"` // trialing, active, past_due, canceled, unpaid
	CurrentPeriodEnd  int64  `json:"current_period_end"` // unix-время конца оплаченного периода
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	TrialEnd          int64  `json:"trial_end,omitempty"`
	Items             struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

// PlanPriceID возвращает идентификатор тарифа первой позиции подписки,
// либо пустую строку, если позиций нет.
func (s *Subscription) PlanPriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// SubscriptionList — страница списка подписок клиента.
type SubscriptionList struct {
	Data []Subscription `json:"data"`
}

// CreateCustomerRequest — запрос на создание клиента.
type CreateCustomerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateCheckoutSessionRequest — запрос на создание сессии оформления подписки.
// TrialPeriodDays > 0 означает пробный период; TrialEnd = "now" — списание сразу.
type CreateCheckoutSessionRequest struct {
	CustomerID          string `json:"customer"`
	PriceID             string `json:"price_id"`
	TrialPeriodDays     int    `json:"trial_period_days,omitempty"`
	TrialEnd            string `json:"trial_end,omitempty"`
	SuccessURL          string `json:"success_url"`
	CancelURL           string `json:"cancel_url"`
	AllowPromotionCodes bool   `json:"allow_promotion_codes"`
}

// CheckoutSession — созданная сессия оформления подписки.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePortalSessionRequest — запрос на создание сессии портала самообслуживания.
type CreatePortalSessionRequest struct {
	CustomerID string `json:"customer"`
	ReturnURL  string `json:"return_url"`
}

// PortalSession — сессия портала самообслуживания.
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// UpdateSubscriptionRequest — запрос на изменение подписки.
type UpdateSubscriptionRequest struct {
	CancelAtPeriodEnd bool `json:"cancel_at_period_end"`
}
