package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// ListExpedientes запрашивает все дела.
// GET /expedientes — фильтрация по роли выполняется на стороне консоли.
func (c *Client) ListExpedientes(ctx context.Context) ([]model.Expediente, error) {
	var items []model.Expediente
	if err := c.do(ctx, "ListExpedientes", http.MethodGet, "/expedientes", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetExpediente запрашивает дело по ID.
// GET /expedientes/{id}
func (c *Client) GetExpediente(ctx context.Context, id int64) (*model.Expediente, error) {
	var e model.Expediente
	if err := c.do(ctx, "GetExpediente", http.MethodGet, expedientePath(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExpediente регистрирует новое дело.
// POST /expedientes {FileNumber, Description, IdTecnicoRegistro, IdEstado}
func (c *Client) CreateExpediente(ctx context.Context, in model.CreateExpedienteInput) (*Ack, error) {
	return c.ack(ctx, "CreateExpediente", http.MethodPost, "/expedientes", in)
}

// UpdateExpediente изменяет дело.
// PUT /expedientes/{id}
func (c *Client) UpdateExpediente(ctx context.Context, id int64, in model.UpdateExpedienteInput) (*Ack, error) {
	return c.ack(ctx, "UpdateExpediente", http.MethodPut, expedientePath(id), in)
}

// DeleteExpediente удаляет дело. Индиции удаляются каскадно на стороне API.
// DELETE /expedientes/{id}
func (c *Client) DeleteExpediente(ctx context.Context, id int64) (*Ack, error) {
	return c.ack(ctx, "DeleteExpediente", http.MethodDelete, expedientePath(id), nil)
}

// SubmitForReview отправляет дело координатору.
// POST /expedientes/{id}/enviar-revision {IdCoordinadorRevision}
func (c *Client) SubmitForReview(ctx context.Context, id int64, in model.SubmitInput) (*Ack, error) {
	return c.ack(ctx, "SubmitForReview", http.MethodPost, expedientePath(id)+"/enviar-revision", in)
}

// Approve утверждает дело.
// POST /expedientes/{id}/aprobar {IdCoordinadorRevision}
func (c *Client) Approve(ctx context.Context, id int64, in model.ApproveInput) (*Ack, error) {
	return c.ack(ctx, "Approve", http.MethodPost, expedientePath(id)+"/aprobar", in)
}

// Reject отклоняет дело.
// POST /expedientes/{id}/rechazar {IdCoordinadorRevision, ObservacionesExpediente}
func (c *Client) Reject(ctx context.Context, id int64, in model.RejectInput) (*Ack, error) {
	return c.ack(ctx, "Reject", http.MethodPost, expedientePath(id)+"/rechazar", in)
}

// ack выполняет операцию записи и декодирует подтверждение.
func (c *Client) ack(ctx context.Context, op, method, path string, body any) (*Ack, error) {
	var a Ack
	if err := c.do(ctx, op, method, path, body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func expedientePath(id int64) string {
	return fmt.Sprintf("/expedientes/%d", id)
}
