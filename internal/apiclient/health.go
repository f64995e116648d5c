package apiclient

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout — таймаут проверки доступности API для /health/ready.
const readinessTimeout = 3 * time.Second

// Ping проверяет доступность health endpoint API.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "Ping", http.MethodGet, c.healthPath, nil, nil)
}

// CheckReady реализует handlers.ReadinessChecker.
// Возвращает статус "ok" или "fail" с сообщением.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return "fail", err.Error()
	}
	return "ok", ""
}
