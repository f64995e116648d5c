package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// expedientesResponse — содержимое зеркала дел.
type expedientesResponse struct {
	Items   []model.Expediente `json:"items"`
	Loading bool               `json:"loading"`
	Error   string             `json:"error,omitempty"`
}

// submitRequest — тело POST /expedientes/{id}/submit.
type submitRequest struct {
	CoordinatorID int64 `json:"IdCoordinadorRevision"`
}

// rejectRequest — тело POST /expedientes/{id}/reject.
type rejectRequest struct {
	Remarks string `json:"ObservacionesExpediente"`
}

// ListExpedientes — GET /api/v1/expedientes. Отдаёт зеркало без запроса к API.
func (h *APIHandler) ListExpedientes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.expedientes())
}

// RefreshExpedientes — POST /api/v1/expedientes/refresh.
func (h *APIHandler) RefreshExpedientes(w http.ResponseWriter, r *http.Request) {
	if err := h.exps.Refresh(r.Context()); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.expedientes())
}

// CreateExpediente — POST /api/v1/expedientes.
func (h *APIHandler) CreateExpediente(w http.ResponseWriter, r *http.Request) {
	var in model.CreateExpedienteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.actions.CreateExpediente(r.Context(), in); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.expedientes())
}

// GetExpediente — GET /api/v1/expedientes/{id}.
func (h *APIHandler) GetExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	exp, err := h.exps.Detail(r.Context(), id)
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// UpdateExpediente — PUT /api/v1/expedientes/{id}. Меняется только описание.
func (h *APIHandler) UpdateExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.UpdateExpedienteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.actions.UpdateExpediente(r.Context(), id, in); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.expedientes())
}

// DeleteExpediente — DELETE /api/v1/expedientes/{id}.
func (h *APIHandler) DeleteExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.actions.Delete(r.Context(), id); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitExpediente — POST /api/v1/expedientes/{id}/submit.
func (h *APIHandler) SubmitExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, h.actions.Submit(r.Context(), id, req.CoordinatorID))
}

// ApproveExpediente — POST /api/v1/expedientes/{id}/approve.
func (h *APIHandler) ApproveExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.transition(w, h.actions.Approve(r.Context(), id))
}

// RejectExpediente — POST /api/v1/expedientes/{id}/reject.
func (h *APIHandler) RejectExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, h.actions.Reject(r.Context(), id, req.Remarks))
}

func (h *APIHandler) transition(w http.ResponseWriter, err error) {
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.expedientes())
}

func (h *APIHandler) expedientes() expedientesResponse {
	items := h.exps.Items()
	if items == nil {
		items = []model.Expediente{}
	}
	return expedientesResponse{
		Items:   items,
		Loading: h.exps.Loading(),
		Error:   loadError(h.exps.Err()),
	}
}
