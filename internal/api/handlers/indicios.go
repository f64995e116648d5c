package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// indiciosResponse — содержимое зеркала индиций выбранного дела.
type indiciosResponse struct {
	ExpedienteID *int64          `json:"IdExpediente"`
	Items        []model.Indicio `json:"items"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
}

// ListIndicios — GET /api/v1/expedientes/{id}/indicios.
// Выбирает дело родителем зеркала индиций; повторный запрос того же
// дела отдаёт зеркало без обращения к API.
func (h *APIHandler) ListIndicios(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.exps.Detail(r.Context(), id); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	if err := h.inds.SetParent(r.Context(), &id); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.indicios())
}

// CreateIndicio — POST /api/v1/expedientes/{id}/indicios.
func (h *APIHandler) CreateIndicio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.CreateIndicioInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ExpedienteID = id
	if err := h.actions.CreateIndicio(r.Context(), in); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.indicios())
}

// UpdateIndicio — PUT /api/v1/indicios/{id}.
func (h *APIHandler) UpdateIndicio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.UpdateIndicioInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.actions.UpdateIndicio(r.Context(), id, in); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.indicios())
}

// DeleteIndicio — DELETE /api/v1/indicios/{id}.
func (h *APIHandler) DeleteIndicio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.actions.DeleteIndicio(r.Context(), id); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) indicios() indiciosResponse {
	items := h.inds.Items()
	if items == nil {
		items = []model.Indicio{}
	}
	return indiciosResponse{
		ExpedienteID: h.inds.Parent(),
		Items:        items,
		Loading:      h.inds.Loading(),
		Error:        loadError(h.inds.Err()),
	}
}
