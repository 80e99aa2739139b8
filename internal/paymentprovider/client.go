// Package paymentprovider реализует HTTP-клиент API платёжного провайдера:
// создание клиентов, список подписок, сессии оформления заказа и портала
// самообслуживания. Все вызовы ограничены таймаутом и принимают контекст.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable возвращается при сетевой ошибке или неожиданном статусе ответа.
// Вызов безопасно повторить: провайдер дедуплицирует запросы по Idempotency-Key.
var ErrUnavailable = errors.New("payment provider unavailable")

// Client — клиент API платёжного провайдера.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платёжного провайдера.
func NewClient(apiURL, secretKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// CreateCustomer создаёт клиента у провайдера по электронной почте.
func (c *Client) CreateCustomer(ctx context.Context, email string) (*Customer, error) {
	const op = "paymentprovider.CreateCustomer"
	req, err := c.newRequest(ctx, http.MethodPost, "/customers", CreateCustomerRequest{Email: email})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &customer, nil
}

// ListSubscriptions возвращает все подписки клиента, включая завершённые.
func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	const op = "paymentprovider.ListSubscriptions"
	req, err := c.newRequest(ctx, http.MethodGet, "/subscriptions?customer="+customerID+"&status=all", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var list SubscriptionList
	if err := c.do(req, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list.Data, nil
}

// CreateCheckoutSession создаёт сессию оформления подписки.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CreateCheckoutSessionRequest) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CreatePortalSession создаёт сессию портала самообслуживания для клиента.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	const op = "paymentprovider.CreatePortalSession"
	req, err := c.newRequest(ctx, http.MethodPost, "/billing_portal/sessions", CreatePortalSessionRequest{
		CustomerID: customerID,
		ReturnURL:  returnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var session PortalSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CancelAtPeriodEnd помечает подписку на отмену в конце оплаченного периода.
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	const op = "paymentprovider.CancelAtPeriodEnd"
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/"+subscriptionID,
		UpdateSubscriptionRequest{CancelAtPeriodEnd: true})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
