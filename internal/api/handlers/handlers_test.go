package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/dicri-console/internal/action"
	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/directory"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/identity"
	"github.com/bigkaa/dicri-console/internal/mirror"
	"github.com/bigkaa/dicri-console/internal/notify"
	"github.com/bigkaa/dicri-console/internal/report"
	"github.com/bigkaa/dicri-console/internal/session"
	"github.com/bigkaa/dicri-console/internal/testutil/fakeapi"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubChecker struct{ status, message string }

func (s stubChecker) CheckReady() (string, string) { return s.status, s.message }

type fixture struct {
	api    *fakeapi.Server
	users  fakeapi.Users
	feed   *notify.Feed
	router http.Handler
}

// setup собирает консоль так же, как cmd/dicri-console.
func setup(t *testing.T) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	users := api.SeedUsers()
	client, err := apiclient.New(api.URL(), "", 5*time.Second, "/health", testLogger())
	if err != nil {
		t.Fatal(err)
	}

	feed := notify.NewFeed(50, time.Minute, testLogger())
	ic := identity.New(client, session.NewMemoryStore(), testLogger())
	exps := mirror.NewExpedientes(client, ic, feed, 16, time.Minute, testLogger())
	inds := mirror.NewIndicios(client, ic, feed, testLogger())
	dir := directory.New(client, time.Minute, testLogger())
	ic.Subscribe(exps.OnIdentityChange)
	ic.Subscribe(inds.OnIdentityChange)

	h := NewAPIHandler(
		NewHealthHandler(stubChecker{status: "ok"}, client),
		ic,
		exps,
		inds,
		action.New(ic, exps, inds, dir, feed, testLogger()),
		dir,
		report.New(ic, exps, client, testLogger()),
		feed,
		testLogger(),
	)
	r := chi.NewRouter()
	h.Register(r)

	return &fixture{api: api, users: users, feed: feed, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, u model.Usuario) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/session/login", model.Credentials{Username: u.Username, Password: fakeapi.Password})
	if rec.Code != http.StatusOK {
		t.Fatalf("вход %s: статус %d, тело %s", u.Username, rec.Code, rec.Body.String())
	}
	f.feed.Drain()
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("ожидался статус %d, получен %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	var b struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	if b.Error.Code != code {
		t.Errorf("ожидался код %s, получен %s", code, b.Error.Code)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	return v
}

// TestHealth проверяет liveness и readiness.
func TestHealth(t *testing.T) {
	f := setup(t)

	expectStatus(t, f.do(t, http.MethodGet, "/health/live", nil), http.StatusOK)

	rec := f.do(t, http.MethodGet, "/health/ready", nil)
	expectStatus(t, rec, http.StatusOK)
	ready := decode[healthReadyResponse](t, rec)
	if ready.Status != "ok" || ready.Checks.DicriAPI.Status != "ok" {
		t.Errorf("ожидался статус ok, получено %+v", ready)
	}

	f.api.Fail(fakeapi.RouteHealth, http.StatusServiceUnavailable, "down")
	rec = f.do(t, http.MethodGet, "/health/ready", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	ready = decode[healthReadyResponse](t, rec)
	if ready.Checks.DicriAPI.Status != statusFail {
		t.Errorf("ожидался fail для API, получено %+v", ready.Checks.DicriAPI)
	}
}

// TestOverallStatus проверяет сведение статусов зависимостей.
func TestOverallStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"ok", "ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail"}, "fail"},
	}
	for _, tt := range tests {
		if got := overallStatus(tt.in...); got != tt.want {
			t.Errorf("overallStatus(%v) = %s, ожидалось %s", tt.in, got, tt.want)
		}
	}
}

// TestSession проверяет вход, состояние сессии и выход.
func TestSession(t *testing.T) {
	f := setup(t)

	s := decode[sessionResponse](t, f.do(t, http.MethodGet, "/api/v1/session", nil))
	if s.Authenticated || len(s.Permissions) != 0 {
		t.Errorf("до входа сессии быть не должно: %+v", s)
	}

	expectCode(t, f.do(t, http.MethodPost, "/api/v1/session/login", model.Credentials{Username: "tecnico"}),
		http.StatusBadRequest, "VALIDATION_FAILED")
	expectCode(t, f.do(t, http.MethodPost, "/api/v1/session/login", model.Credentials{Username: "tecnico", Password: "wrong"}),
		http.StatusUnauthorized, "AUTH_FAILED")

	f.login(t, f.users.Coordinator)
	s = decode[sessionResponse](t, f.do(t, http.MethodGet, "/api/v1/session", nil))
	if !s.Authenticated || s.Role != "coordinator" || s.Actor.ID != f.users.Coordinator.ID {
		t.Errorf("неверная сессия координатора: %+v", s)
	}
	if len(s.Permissions) != 2 {
		t.Errorf("ожидалось 2 права, получено %v", s.Permissions)
	}

	expectStatus(t, f.do(t, http.MethodDelete, "/api/v1/session", nil), http.StatusNoContent)
	expectStatus(t, f.do(t, http.MethodDelete, "/api/v1/session", nil), http.StatusNoContent)
	expectCode(t, f.do(t, http.MethodGet, "/api/v1/expedientes", nil), http.StatusUnauthorized, "UNAUTHENTICATED")
}

// TestScenario проходит путь дела через HTTP: регистрация, индиций,
// отправка на проверку, утверждение координатором.
func TestScenario(t *testing.T) {
	f := setup(t)
	f.login(t, f.users.Technician)

	rec := f.do(t, http.MethodPost, "/api/v1/expedientes", model.CreateExpedienteInput{FileNumber: "EXP-001", Description: "Homicidio zona 1"})
	expectStatus(t, rec, http.StatusCreated)
	list := decode[expedientesResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].FileNumber != "EXP-001" {
		t.Fatalf("ожидалось одно дело EXP-001, получено %+v", list.Items)
	}
	id := list.Items[0].ID
	base := fmt.Sprintf("/api/v1/expedientes/%d", id)

	rec = f.do(t, http.MethodPost, base+"/submit", submitRequest{CoordinatorID: f.users.Coordinator.ID})
	expectCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = f.do(t, http.MethodPost, base+"/indicios", model.CreateIndicioInput{Description: "Casquillo 9mm", Location: "Bodega A"})
	expectStatus(t, rec, http.StatusCreated)

	rec = f.do(t, http.MethodGet, base+"/indicios", nil)
	expectStatus(t, rec, http.StatusOK)
	inds := decode[indiciosResponse](t, rec)
	if inds.ExpedienteID == nil || *inds.ExpedienteID != id || len(inds.Items) != 1 {
		t.Fatalf("ожидался один индиций дела %d, получено %+v", id, inds)
	}

	expectStatus(t, f.do(t, http.MethodPost, base+"/submit", submitRequest{CoordinatorID: f.users.Coordinator.ID}), http.StatusOK)
	expectCode(t, f.do(t, http.MethodPost, base+"/approve", nil), http.StatusForbidden, "PERMISSION_DENIED")

	notes := decode[notificationsResponse](t, f.do(t, http.MethodGet, "/api/v1/notifications", nil))
	if len(notes.Items) == 0 {
		t.Error("ожидались уведомления о действиях")
	}
	if again := decode[notificationsResponse](t, f.do(t, http.MethodGet, "/api/v1/notifications", nil)); len(again.Items) != 0 {
		t.Errorf("лента должна очищаться после чтения, получено %+v", again.Items)
	}

	f.login(t, f.users.Coordinator)
	coords := decode[usuariosResponse](t, f.do(t, http.MethodGet, "/api/v1/coordinators", nil))
	for _, u := range coords.Items {
		if !u.IsActive {
			t.Errorf("в списке выбора неактивный координатор %d", u.ID)
		}
	}

	expectStatus(t, f.do(t, http.MethodPost, base+"/approve", nil), http.StatusOK)
	if e, _ := f.api.Expediente(id); e.State != model.StateApproved {
		t.Errorf("ожидалось состояние Aprobado, получено %s", e.State)
	}
	expectCode(t, f.do(t, http.MethodPost, base+"/approve", nil), http.StatusConflict, "INVALID_STATE")

	dash := decode[model.Statistics](t, f.do(t, http.MethodGet, "/api/v1/dashboard", nil))
	if dash.Totals.TotalExpedientes != 1 {
		t.Errorf("в сводке координатора ожидалось 1 дело, получено %+v", dash)
	}
}

// TestExpediente_Errors проверяет ответы на типичные ошибки.
func TestExpediente_Errors(t *testing.T) {
	f := setup(t)
	f.api.SeedExpediente(model.Expediente{ID: 1, FileNumber: "EXP-001", Description: "d", TechnicianID: f.users.Technician.ID, State: model.StateDrafting})
	f.api.SeedExpediente(model.Expediente{ID: 2, FileNumber: "EXP-002", Description: "d", TechnicianID: f.users.Technician2.ID, State: model.StateDrafting})
	f.login(t, f.users.Technician)

	expectCode(t, f.do(t, http.MethodGet, "/api/v1/expedientes/abc", nil), http.StatusBadRequest, "BAD_REQUEST")
	expectCode(t, f.do(t, http.MethodGet, "/api/v1/expedientes/2", nil), http.StatusNotFound, "NOT_FOUND")
	expectCode(t, f.do(t, http.MethodDelete, "/api/v1/expedientes/2", nil), http.StatusNotFound, "NOT_FOUND")

	rec := f.do(t, http.MethodGet, "/api/v1/expedientes/1", nil)
	expectStatus(t, rec, http.StatusOK)
	if e := decode[model.Expediente](t, rec); e.FileNumber != "EXP-001" {
		t.Errorf("ожидалось EXP-001, получено %+v", e)
	}

	f.api.Fail(fakeapi.RouteDeleteExpediente, http.StatusInternalServerError, "Error al eliminar")
	expectCode(t, f.do(t, http.MethodDelete, "/api/v1/expedientes/1", nil), http.StatusBadGateway, "REMOTE_FAILURE")
	f.api.Recover(fakeapi.RouteDeleteExpediente)
	expectStatus(t, f.do(t, http.MethodDelete, "/api/v1/expedientes/1", nil), http.StatusNoContent)

	f.api.Fail(fakeapi.RouteListExpedientes, http.StatusInternalServerError, "Error al listar")
	expectCode(t, f.do(t, http.MethodPost, "/api/v1/expedientes/refresh", nil), http.StatusBadGateway, "REMOTE_FAILURE")
	list := decode[expedientesResponse](t, f.do(t, http.MethodGet, "/api/v1/expedientes", nil))
	if list.Error != "Error al listar" {
		t.Errorf("ожидалась ошибка загрузки в ответе, получено %q", list.Error)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/expedientes/1", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	expectCode(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

// TestCreateExpediente_Coordinator проверяет право create_expediente.
func TestCreateExpediente_Coordinator(t *testing.T) {
	f := setup(t)
	f.login(t, f.users.Coordinator)

	rec := f.do(t, http.MethodPost, "/api/v1/expedientes", model.CreateExpedienteInput{FileNumber: "EXP-009", Description: "d"})
	expectCode(t, rec, http.StatusForbidden, "PERMISSION_DENIED")
	if n := f.api.Calls(fakeapi.RouteCreateExpediente); n != 0 {
		t.Errorf("запроса к API быть не должно, выполнено %d", n)
	}
}

// TestReports проверяет доступ к отчётам и разбор фильтров.
func TestReports(t *testing.T) {
	f := setup(t)
	f.api.SeedExpediente(model.Expediente{ID: 1, FileNumber: "EXP-001", TechnicianID: f.users.Technician.ID, State: model.StateApproved})

	f.login(t, f.users.Technician)
	expectCode(t, f.do(t, http.MethodGet, "/api/v1/reports/statistics", nil), http.StatusForbidden, "PERMISSION_DENIED")

	f.login(t, f.users.Coordinator)
	paths := []string{
		"/api/v1/reports/expedientes?estado=3",
		"/api/v1/reports/statistics?fechaInicio=2025-01-01&fechaFin=2025-12-31",
		"/api/v1/reports/technicians",
		"/api/v1/reports/coordinators",
	}
	for _, p := range paths {
		expectStatus(t, f.do(t, http.MethodGet, p, nil), http.StatusOK)
	}

	rows := decode[rowsResponse[model.ExpedienteReportRow]](t, f.do(t, http.MethodGet, "/api/v1/reports/expedientes?estado=3", nil))
	if len(rows.Items) != 1 {
		t.Errorf("ожидалось одно утверждённое дело, получено %+v", rows.Items)
	}

	expectCode(t, f.do(t, http.MethodGet, "/api/v1/reports/expedientes?estado=x", nil), http.StatusBadRequest, "BAD_REQUEST")
	expectCode(t, f.do(t, http.MethodGet, "/api/v1/reports/expedientes?fechaInicio=2025-12-31&fechaFin=2025-01-01", nil),
		http.StatusBadRequest, "VALIDATION_FAILED")
}

// TestReports_CSV проверяет выгрузку отчётов в CSV.
func TestReports_CSV(t *testing.T) {
	f := setup(t)
	f.api.SeedExpediente(model.Expediente{ID: 1, FileNumber: "EXP-001", Description: "Robo", TechnicianID: f.users.Technician.ID, State: model.StateApproved})
	f.login(t, f.users.Coordinator)

	tests := []struct {
		path     string
		filename string
		header   string
	}{
		{"/api/v1/reports/expedientes?format=csv", "reporte_expedientes.csv", "Expediente,Descripción,Estado,Técnico,Coordinador,Fecha Creación"},
		{"/api/v1/reports/statistics?format=csv", "estadisticas.csv", "Estado,Cantidad,Porcentaje"},
		{"/api/v1/reports/technicians?format=csv", "reporte_tecnicos.csv", "Técnico,Total Expedientes,Total Indicios,Aprobados,Rechazados"},
		{"/api/v1/reports/coordinators?format=csv", "reporte_coordinadores.csv", "Coordinador,Total Revisiones,Aprobados,Rechazados"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, nil)
			expectStatus(t, rec, http.StatusOK)
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
				t.Errorf("ожидался text/csv, получен %q", ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.filename) {
				t.Errorf("ожидалось имя файла %s, получено %q", tt.filename, cd)
			}
			if first, _, _ := strings.Cut(rec.Body.String(), "\n"); first != tt.header {
				t.Errorf("ожидался заголовок %q, получен %q", tt.header, first)
			}
		})
	}

	rec := f.do(t, http.MethodGet, "/api/v1/reports/expedientes?format=csv", nil)
	if !strings.Contains(rec.Body.String(), "EXP-001,Robo,Aprobado,Ana Técnico,N/A,") {
		t.Errorf("в выгрузке нет строки дела: %s", rec.Body.String())
	}

	expectCode(t, f.do(t, http.MethodGet, "/api/v1/reports/technicians?format=xml", nil), http.StatusBadRequest, "BAD_REQUEST")

	f.login(t, f.users.Technician)
	expectCode(t, f.do(t, http.MethodGet, "/api/v1/reports/statistics?format=csv", nil), http.StatusForbidden, "PERMISSION_DENIED")
}

// TestListIndicios_SameParent проверяет, что повторный выбор того же дела
// не обращается к API.
func TestListIndicios_SameParent(t *testing.T) {
	f := setup(t)
	f.api.SeedExpediente(model.Expediente{ID: 1, FileNumber: "EXP-001", Description: "d", TechnicianID: f.users.Technician.ID, State: model.StateDrafting})
	f.api.SeedIndicio(model.Indicio{ExpedienteID: 1, Description: "i", Location: "L", TechnicianID: f.users.Technician.ID})
	f.login(t, f.users.Technician)

	expectStatus(t, f.do(t, http.MethodGet, "/api/v1/expedientes/1/indicios", nil), http.StatusOK)
	expectStatus(t, f.do(t, http.MethodGet, "/api/v1/expedientes/1/indicios", nil), http.StatusOK)
	if n := f.api.Calls(fakeapi.RouteListIndicios); n != 1 {
		t.Errorf("ожидалась одна загрузка индициев, выполнено %d", n)
	}

	rec := f.do(t, http.MethodPut, "/api/v1/indicios/1", model.UpdateIndicioInput{Description: "Casquillo", Location: "Bodega B"})
	expectStatus(t, rec, http.StatusOK)
	if inds := decode[indiciosResponse](t, rec); len(inds.Items) != 1 || inds.Items[0].Location != "Bodega B" {
		t.Errorf("ожидался обновлённый индиций, получено %+v", inds.Items)
	}
	expectStatus(t, f.do(t, http.MethodDelete, "/api/v1/indicios/1", nil), http.StatusNoContent)
	if n := f.api.IndicioCount(1); n != 0 {
		t.Errorf("индиций должен быть удалён, осталось %d", n)
	}
}
