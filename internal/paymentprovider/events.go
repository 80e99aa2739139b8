// Package paymentprovider содержит разбор входящих webhook-событий провайдера.
//
// Событие приходит конвертом Event с типом и вложенным объектом. Метод Object
// возвращает типизированный вариант по известному типу события; неизвестные
// типы разбираются в RawObject и уходят в журнал аудита, а не отбрасываются.
package paymentprovider

import (
	"encoding/json"
	"fmt"
)

// EventKind — тип webhook-события в таксономии провайдера.
type EventKind string

// Известные типы событий.
const (
	EventCheckoutCompleted    EventKind = "checkout.session.completed"
	EventSubscriptionCreated  EventKind = "customer.subscription.created"
	EventSubscriptionUpdated  EventKind = "customer.subscription.updated"
	EventSubscriptionDeleted  EventKind = "customer.subscription.deleted"
	EventInvoicePaymentOK     EventKind = "invoice.payment_succeeded"
	EventInvoicePaymentFailed EventKind = "invoice.payment_failed"
	EventTrialWillEnd         EventKind = "customer.subscription.trial_will_end"
)

// Event — конверт webhook-события.
type Event struct {
	ID   string    `json:"id"`
	Type EventKind `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
	Raw []byte `json:"-"` // Исходное тело запроса для журнала аудита
}

// CheckoutObject — объект события завершения оформления заказа.
type CheckoutObject struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer"`
}

// InvoiceObject — объект события об исходе платежа по счёту.
type InvoiceObject struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer"`
	AmountPaid       int64  `json:"amount_paid"`
	AmountDue        int64  `json:"amount_due"`
	Currency         string `json:"currency"`
	Paid             bool   `json:"paid"`
	AttemptCount     int    `json:"attempt_count"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// FailureReason возвращает причину отказа платежа, либо nil при успехе.
func (i *InvoiceObject) FailureReason() *string {
	if i.LastPaymentError == nil {
		return nil
	}
	reason := i.LastPaymentError.Code
	if i.LastPaymentError.Message != "" {
		reason = i.LastPaymentError.Code + ": " + i.LastPaymentError.Message
	}
	return &reason
}

// RawObject — объект события неизвестного типа: сохраняется как есть.
type RawObject struct {
	EventType EventKind
	Payload   json.RawMessage
}

// ParseEvent разбирает конверт webhook-события из тела запроса.
func ParseEvent(body []byte) (*Event, error) {
	const op = "paymentprovider.ParseEvent"
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%s: missing event type", op)
	}
	event.Raw = body
	return &event, nil
}

// Object возвращает типизированный объект события:
// *CheckoutObject, *Subscription, *InvoiceObject или *RawObject
// для неизвестных типов.
func (e *Event) Object() (any, error) {
	const op = "paymentprovider.Event.Object"
	switch e.Type {
	case EventCheckoutCompleted:
		var obj CheckoutObject
		if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &obj, nil
	case EventSubscriptionCreated, EventSubscriptionUpdated,
		EventSubscriptionDeleted, EventTrialWillEnd:
		var obj Subscription
		if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &obj, nil
	case EventInvoicePaymentOK, EventInvoicePaymentFailed:
		var obj InvoiceObject
		if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &obj, nil
	default:
		return &RawObject{EventType: e.Type, Payload: e.Data.Object}, nil
	}
}
