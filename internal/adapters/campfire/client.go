// Package campfire реализует транспортный фасад Campfire API: аутентифицированный
// GET с типизированной ошибкой для ответов со статусом >= 400.
package campfire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIError — ошибка удаленного вызова: ресурс, сообщение и код ответа.
type APIError struct {
	Resource   string
	Message    string
	StatusCode int
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("<%s>: %s (%d)", e.Resource, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("<%s>: %s", e.Resource, e.Message)
}

// IsNotFound сообщает, является ли ошибка ответом 404. Для загрузок 404
// означает "файл был удален", а не сбой.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// AccountURL возвращает базовый URL API для поддомена аккаунта.
func AccountURL(subdomain string) string {
	return fmt.Sprintf("https://%s.campfirenow.com", subdomain)
}

// Client — клиент Campfire API. Аутентификация выполняется API-токеном
// через basic auth (токен как имя пользователя, "X" как пароль).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создает новый экземпляр Client для указанного поддомена.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Общий таймаут для запросов
		},
	}
}

// BaseURL возвращает базовый URL аккаунта.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get выполняет GET-запрос по относительному пути API и возвращает тело
// ответа. Повторные попытки не выполняются: решение о судьбе неудачного
// вызова принимает вызывающая сторона.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.SetBasicAuth(c.token, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			Resource:   reqURL,
			Message:    http.StatusText(resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", path, err)
	}

	return body, nil
}
