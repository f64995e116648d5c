package apiclient

import (
	"context"
	"net/http"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// ListUsuarios запрашивает всех пользователей.
// GET /usuarios — фильтрация по коду роли выполняется на стороне консоли.
func (c *Client) ListUsuarios(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	if err := c.do(ctx, "ListUsuarios", http.MethodGet, "/usuarios", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
