// Package agentrunner реализует HTTP-клиент внешнего конвейера агентов.
// Сервис не знает внутреннего устройства конвейера: он передаёт контекст
// беседы и получает готовый текст ответа.
package agentrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/models"
)

// RunRequest — контекст, передаваемый конвейеру агентов.
type RunRequest struct {
	UserInput    string            `json:"user_input"`
	Username     string            `json:"username"`
	Role         string            `json:"role"`
	Conversation []models.Message  `json:"conversation"`
	Memories     []models.Memory   `json:"memories"`
}

// RunResponse — ответ конвейера агентов.
type RunResponse struct {
	Response string `json:"response"`
}

// Client — клиент конвейера агентов.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент конвейера агентов.
// Таймаут должен покрывать полное время генерации ответа.
func NewClient(apiURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run передаёт контекст беседы конвейеру агентов и возвращает текст ответа.
func (c *Client) Run(ctx context.Context, reqParams RunRequest) (string, error) {
	const op = "agentrunner.Run"
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqParams); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/run", &buf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w", op, errors.New("unexpected status: "+resp.Status))
	}
	var runResp RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&runResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return runResp.Response, nil
}
