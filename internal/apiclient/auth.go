package apiclient

import (
	"context"
	"net/http"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// Login выполняет вход.
// POST /login {Username, Password} → {message, user}.
// При неверных учётных данных возвращает *APIError с сообщением сервера.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, "Login", http.MethodPost, "/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
