package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
)

// sessionResponse — состояние сессии консоли.
type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Actor         *model.Actor      `json:"actor,omitempty"`
	Role          string            `json:"role,omitempty"`
	Permissions   []rbac.Permission `json:"permissions"`
}

// Login — POST /api/v1/session/login.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if _, err := h.identity.Login(r.Context(), creds); err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session())
}

// Logout — DELETE /api/v1/session. Повторный выход не ошибка.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context()); err != nil {
		h.logger.Error("Ошибка выхода", slog.String("error", err.Error()))
		apierrors.InternalError(w, "ошибка выхода из системы")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession — GET /api/v1/session.
func (h *APIHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session())
}

func (h *APIHandler) session() sessionResponse {
	actor := h.identity.Current()
	resp := sessionResponse{Permissions: h.identity.Permissions()}
	if resp.Permissions == nil {
		resp.Permissions = []rbac.Permission{}
	}
	if actor == nil {
		return resp
	}
	resp.Authenticated = true
	resp.Actor = actor
	resp.Role = rbac.Role(actor.RoleCode).String()
	return resp
}
