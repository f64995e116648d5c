// handler.go — основной обработчик консольного API.
// Объединяет доменные обработчики и регистрирует маршруты в chi-роутере.
// Обработчики только читают зеркала и вызывают действия; правила
// проверяются в action, workflow и report.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/api/middleware"
	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
	"github.com/bigkaa/dicri-console/internal/notify"
)

// maxBodyBytes — предельный размер тела запроса.
const maxBodyBytes = 1 << 20

// Identity — контекст текущего пользователя (identity.Context).
type Identity interface {
	Login(ctx context.Context, creds model.Credentials) (*model.Actor, error)
	Logout(ctx context.Context) error
	Current() *model.Actor
	Permissions() []rbac.Permission
}

// ExpedienteMirror — зеркало дел (mirror.Expedientes).
type ExpedienteMirror interface {
	Refresh(ctx context.Context) error
	Items() []model.Expediente
	Loading() bool
	Err() error
	Detail(ctx context.Context, id int64) (*model.Expediente, error)
}

// IndicioMirror — зеркало индиций выбранного дела (mirror.Indicios).
type IndicioMirror interface {
	SetParent(ctx context.Context, expedienteID *int64) error
	Parent() *int64
	Items() []model.Indicio
	Loading() bool
	Err() error
}

// Actions — действия над делами и индициями (action.Orchestrator).
type Actions interface {
	Submit(ctx context.Context, id, coordinatorID int64) error
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, remarks string) error
	Delete(ctx context.Context, id int64) error
	CreateExpediente(ctx context.Context, in model.CreateExpedienteInput) error
	UpdateExpediente(ctx context.Context, id int64, in model.UpdateExpedienteInput) error
	CreateIndicio(ctx context.Context, in model.CreateIndicioInput) error
	UpdateIndicio(ctx context.Context, id int64, in model.UpdateIndicioInput) error
	DeleteIndicio(ctx context.Context, id int64) error
}

// Picker — список координаторов для выбора (directory.Directory).
type Picker interface {
	PickerCoordinators(ctx context.Context) []model.Usuario
}

// Reports — сводка и отчёты (report.Service).
type Reports interface {
	Dashboard(ctx context.Context) (*model.Statistics, error)
	Expedientes(ctx context.Context, f model.ReportFilters) ([]model.ExpedienteReportRow, error)
	Statistics(ctx context.Context, f model.ReportFilters) (*model.Statistics, error)
	Technicians(ctx context.Context) ([]model.TechnicianReportRow, error)
	Coordinators(ctx context.Context) ([]model.CoordinatorReportRow, error)
}

// Notifications — лента уведомлений (notify.Feed).
type Notifications interface {
	Drain() []notify.Notification
}

// APIHandler — основной обработчик консольного API.
type APIHandler struct {
	health   *HealthHandler
	identity Identity
	exps     ExpedienteMirror
	inds     IndicioMirror
	actions  Actions
	picker   Picker
	reports  Reports
	feed     Notifications
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	identity Identity,
	exps ExpedienteMirror,
	inds IndicioMirror,
	actions Actions,
	picker Picker,
	reports Reports,
	feed Notifications,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		identity: identity,
		exps:     exps,
		inds:     inds,
		actions:  actions,
		picker:   picker,
		reports:  reports,
		feed:     feed,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// Register регистрирует все маршруты консоли.
func (h *APIHandler) Register(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session/login", h.Login)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.Logout)
		r.Get("/notifications", h.GetNotifications)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(h.identity))

			r.Get("/expedientes", h.ListExpedientes)
			r.Post("/expedientes/refresh", h.RefreshExpedientes)
			r.With(middleware.RequirePermission(rbac.PermCreateExpediente)).
				Post("/expedientes", h.CreateExpediente)
			r.Get("/expedientes/{id}", h.GetExpediente)
			r.Put("/expedientes/{id}", h.UpdateExpediente)
			r.Delete("/expedientes/{id}", h.DeleteExpediente)
			r.Post("/expedientes/{id}/submit", h.SubmitExpediente)
			r.Post("/expedientes/{id}/approve", h.ApproveExpediente)
			r.Post("/expedientes/{id}/reject", h.RejectExpediente)

			r.Get("/expedientes/{id}/indicios", h.ListIndicios)
			r.Post("/expedientes/{id}/indicios", h.CreateIndicio)
			r.Put("/indicios/{id}", h.UpdateIndicio)
			r.Delete("/indicios/{id}", h.DeleteIndicio)

			r.Get("/coordinators", h.ListCoordinators)
			r.Get("/dashboard", h.GetDashboard)

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(rbac.PermViewReports))
				r.Get("/expedientes", h.ExpedientesReport)
				r.Get("/statistics", h.StatisticsReport)
				r.Get("/technicians", h.TechniciansReport)
				r.Get("/coordinators", h.CoordinatorsReport)
			})
		})
	})
}

// GetNotifications возвращает и удаляет накопленные уведомления.
func (h *APIHandler) GetNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, notificationsResponse{Items: h.feed.Drain()})
}

// ListCoordinators — активные координаторы для отправки на проверку.
func (h *APIHandler) ListCoordinators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, usuariosResponse{Items: h.picker.PickerCoordinators(r.Context())})
}

type notificationsResponse struct {
	Items []notify.Notification `json:"items"`
}

type usuariosResponse struct {
	Items []model.Usuario `json:"items"`
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.BadRequest(w, fmt.Sprintf("Некорректное тело запроса: %v", err))
		return false
	}
	return true
}

// pathID извлекает числовой {id} из пути.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(w, fmt.Sprintf("Некорректный идентификатор: %q", raw))
		return 0, false
	}
	return id, true
}

// loadError — сообщение ошибки последней загрузки зеркала.
func loadError(err error) string {
	if err == nil {
		return ""
	}
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	return "ошибка загрузки"
}
