package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// ListIndicios запрашивает индиции дела.
// GET /expedientes/{id}/indicios
func (c *Client) ListIndicios(ctx context.Context, expedienteID int64) ([]model.Indicio, error) {
	var items []model.Indicio
	if err := c.do(ctx, "ListIndicios", http.MethodGet, expedientePath(expedienteID)+"/indicios", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateIndicio добавляет индиций к делу.
// POST /indicios
func (c *Client) CreateIndicio(ctx context.Context, in model.CreateIndicioInput) (*Ack, error) {
	return c.ack(ctx, "CreateIndicio", http.MethodPost, "/indicios", in)
}

// UpdateIndicio изменяет индиций.
// PUT /indicios/{id}
func (c *Client) UpdateIndicio(ctx context.Context, id int64, in model.UpdateIndicioInput) (*Ack, error) {
	return c.ack(ctx, "UpdateIndicio", http.MethodPut, indicioPath(id), in)
}

// DeleteIndicio удаляет индиций.
// DELETE /indicios/{id}
func (c *Client) DeleteIndicio(ctx context.Context, id int64) (*Ack, error) {
	return c.ack(ctx, "DeleteIndicio", http.MethodDelete, indicioPath(id), nil)
}

func indicioPath(id int64) string {
	return fmt.Sprintf("/indicios/%d", id)
}
