// Пакет fakeapi — in-memory реализация DICRI API для тестов.
// Повторяет контракт удалённого API: вход, дела, индиции, пользователи, отчёты.
// Считает вызовы по маршрутам, умеет возвращать заданные ошибки
// и придерживать списки дел и индиций для тестов повторного входа.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// Маршруты (ключи для Calls и Fail).
const (
	RouteLogin             = "POST /login"
	RouteListExpedientes   = "GET /expedientes"
	RouteGetExpediente     = "GET /expedientes/{id}"
	RouteCreateExpediente  = "POST /expedientes"
	RouteUpdateExpediente  = "PUT /expedientes/{id}"
	RouteDeleteExpediente  = "DELETE /expedientes/{id}"
	RouteSubmit            = "POST /expedientes/{id}/enviar-revision"
	RouteApprove           = "POST /expedientes/{id}/aprobar"
	RouteReject            = "POST /expedientes/{id}/rechazar"
	RouteListIndicios      = "GET /expedientes/{id}/indicios"
	RouteCreateIndicio     = "POST /indicios"
	RouteUpdateIndicio     = "PUT /indicios/{id}"
	RouteDeleteIndicio     = "DELETE /indicios/{id}"
	RouteListUsuarios      = "GET /usuarios"
	RouteReportExpedientes = "GET /reportes/expedientes"
	RouteReportStatistics  = "GET /reportes/estadisticas"
	RouteReportTechnicians = "GET /reportes/tecnicos"
	RouteReportCoordinator = "GET /reportes/coordinadores"
	RouteHealth            = "GET /health"
)

// failure — заданный ответ с ошибкой.
type failure struct {
	status  int
	message string
}

// Server — fake DICRI API поверх httptest.Server.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	users       map[int64]model.Usuario
	passwords   map[string]string
	expedientes map[int64]*model.Expediente
	indicios    map[int64]*model.Indicio
	nextExp     int64
	nextInd     int64
	nextUser    int64
	calls       map[string]int
	failures    map[string]failure

	// Задержанные запросы по маршрутам (см. Hold)
	holds map[string]hold
}

// hold — следующий запрос маршрута ждёт release.
type hold struct {
	entered chan struct{}
	release chan struct{}
}

// New запускает fake API. Сервер останавливается в t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		users:       make(map[int64]model.Usuario),
		passwords:   make(map[string]string),
		expedientes: make(map[int64]*model.Expediente),
		indicios:    make(map[int64]*model.Indicio),
		calls:       make(map[string]int),
		failures:    make(map[string]failure),
		holds:       make(map[string]hold),
	}

	r := chi.NewRouter()
	r.Post("/login", s.route(RouteLogin, s.login))
	r.Get("/health", s.route(RouteHealth, s.health))
	r.Get("/usuarios", s.route(RouteListUsuarios, s.listUsuarios))

	r.Get("/expedientes", s.route(RouteListExpedientes, s.listExpedientes))
	r.Post("/expedientes", s.route(RouteCreateExpediente, s.createExpediente))
	r.Get("/expedientes/{id}", s.route(RouteGetExpediente, s.getExpediente))
	r.Put("/expedientes/{id}", s.route(RouteUpdateExpediente, s.updateExpediente))
	r.Delete("/expedientes/{id}", s.route(RouteDeleteExpediente, s.deleteExpediente))
	r.Post("/expedientes/{id}/enviar-revision", s.route(RouteSubmit, s.submit))
	r.Post("/expedientes/{id}/aprobar", s.route(RouteApprove, s.approve))
	r.Post("/expedientes/{id}/rechazar", s.route(RouteReject, s.reject))
	r.Get("/expedientes/{id}/indicios", s.route(RouteListIndicios, s.listIndicios))

	r.Post("/indicios", s.route(RouteCreateIndicio, s.createIndicio))
	r.Put("/indicios/{id}", s.route(RouteUpdateIndicio, s.updateIndicio))
	r.Delete("/indicios/{id}", s.route(RouteDeleteIndicio, s.deleteIndicio))

	r.Get("/reportes/expedientes", s.route(RouteReportExpedientes, s.reportExpedientes))
	r.Get("/reportes/estadisticas", s.route(RouteReportStatistics, s.reportStatistics))
	r.Get("/reportes/tecnicos", s.route(RouteReportTechnicians, s.reportTechnicians))
	r.Get("/reportes/coordinadores", s.route(RouteReportCoordinator, s.reportCoordinators))

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// URL возвращает базовый URL fake API.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close останавливает сервер (для тестов недоступности API).
func (s *Server) Close() {
	s.srv.Close()
}

// AddUser добавляет пользователя. Нулевой ID назначается автоматически.
func (s *Server) AddUser(u model.Usuario, password string) model.Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.nextUser++
		u.ID = s.nextUser + 1000
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	s.users[u.ID] = u
	s.passwords[u.Username] = password
	return u
}

// SeedExpediente добавляет дело напрямую, минуя API. Возвращает ID.
func (s *Server) SeedExpediente(e model.Expediente) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		s.nextExp++
		e.ID = s.nextExp
	} else if e.ID > s.nextExp {
		s.nextExp = e.ID
	}
	if e.State == 0 {
		e.State = model.StateDrafting
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
		e.UpdatedAt = e.CreatedAt
	}
	s.expedientes[e.ID] = &e
	return e.ID
}

// SeedIndicio добавляет индиций напрямую. Возвращает ID.
func (s *Server) SeedIndicio(i model.Indicio) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.ID == 0 {
		s.nextInd++
		i.ID = s.nextInd
	} else if i.ID > s.nextInd {
		s.nextInd = i.ID
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
		i.UpdatedAt = i.CreatedAt
	}
	s.indicios[i.ID] = &i
	return i.ID
}

// Expediente возвращает копию дела из хранилища fake API.
func (s *Server) Expediente(id int64) (model.Expediente, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expedientes[id]
	if !ok {
		return model.Expediente{}, false
	}
	return s.decorate(e), true
}

// ExpedienteByNumber ищет дело по номеру.
func (s *Server) ExpedienteByNumber(fileNumber string) (model.Expediente, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expedientes {
		if e.FileNumber == fileNumber {
			return s.decorate(e), true
		}
	}
	return model.Expediente{}, false
}

// IndicioCount возвращает число индициев дела.
func (s *Server) IndicioCount(expedienteID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indiciosOf(expedienteID))
}

// Calls возвращает число вызовов маршрута (например, RouteListExpedientes).
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls возвращает общее число вызовов, кроме health.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for route, n := range s.calls {
		if route != RouteHealth {
			total += n
		}
	}
	return total
}

// Fail задаёт ответ с ошибкой для маршрута. Пустой message — тело без поля message.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover снимает заданную ошибку маршрута.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold придерживает следующий запрос маршрута (RouteListExpedientes,
// RouteListIndicios). entered закрывается, когда запрос дошёл до сервера;
// release отпускает его.
func (s *Server) Hold(route string) (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := hold{entered: make(chan struct{}), release: make(chan struct{})}
	s.holds[route] = h
	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// HoldList придерживает следующий GET /expedientes.
func (s *Server) HoldList() (entered <-chan struct{}, release func()) {
	return s.Hold(RouteListExpedientes)
}

// wait блокирует запрос, если для маршрута задана задержка.
// Задержка срабатывает один раз.
func (s *Server) wait(route string) {
	s.mu.Lock()
	h, ok := s.holds[route]
	delete(s.holds, route)
	s.mu.Unlock()

	if ok {
		close(h.entered)
		<-h.release
	}
}

// route оборачивает обработчик: счётчик вызовов и заданные ошибки.
func (s *Server) route(key string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			if f.message == "" {
				w.WriteHeader(f.status)
				return
			}
			writeMessage(w, f.status, f.message)
			return
		}
		h(w, r)
	}
}

// --- обработчики ---

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pw, ok := s.passwords[creds.Username]
	if !ok || pw != creds.Password {
		writeMessage(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	for _, u := range s.users {
		if u.Username == creds.Username {
			if !u.IsActive {
				writeMessage(w, http.StatusUnauthorized, "Usuario inactivo")
				return
			}
			writeJSON(w, http.StatusOK, model.LoginResponse{Message: "Login exitoso", User: u})
			return
		}
	}
	writeMessage(w, http.StatusUnauthorized, "Credenciales inválidas")
}

func (s *Server) listUsuarios(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := make([]model.Usuario, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listExpedientes(w http.ResponseWriter, _ *http.Request) {
	s.wait(RouteListExpedientes)

	s.mu.Lock()
	items := make([]model.Expediente, 0, len(s.expedientes))
	for _, e := range s.expedientes {
		items = append(items, s.decorate(e))
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.expedientes[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Expediente no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, s.decorate(e))
}

func (s *Server) createExpediente(w http.ResponseWriter, r *http.Request) {
	var in model.CreateExpedienteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expedientes {
		if e.FileNumber == in.FileNumber {
			writeMessage(w, http.StatusConflict, "El número de expediente ya existe")
			return
		}
	}

	state := in.State
	if state == 0 {
		state = model.StateDrafting
	}
	s.nextExp++
	now := time.Now().UTC()
	s.expedientes[s.nextExp] = &model.Expediente{
		ID:           s.nextExp,
		FileNumber:   in.FileNumber,
		Description:  in.Description,
		TechnicianID: in.TechnicianID,
		State:        state,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Expediente creado", "id": s.nextExp})
}

func (s *Server) updateExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.UpdateExpedienteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.expedientes[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Expediente no encontrado")
		return
	}
	e.Description = in.Description
	if in.State != 0 {
		e.State = in.State
	}
	e.Remarks = in.Remarks
	e.CoordinatorID = in.CoordinatorID
	e.ReviewDate = in.ReviewDate
	e.UpdatedAt = time.Now().UTC()
	writeMessage(w, http.StatusOK, "Expediente actualizado")
}

func (s *Server) deleteExpediente(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.expedientes[id]; !found {
		writeMessage(w, http.StatusNotFound, "Expediente no encontrado")
		return
	}
	delete(s.expedientes, id)
	for iid, ind := range s.indicios {
		if ind.ExpedienteID == id {
			delete(s.indicios, iid)
		}
	}
	writeMessage(w, http.StatusOK, "Expediente eliminado")
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var in model.SubmitInput
	s.transition(w, r, &in, func(e *model.Expediente) string {
		if e.State != model.StateDrafting {
			return "El expediente no está en registro"
		}
		coordinatorID := in.CoordinatorID
		e.State = model.StateInReview
		e.CoordinatorID = &coordinatorID
		return ""
	})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	var in model.ApproveInput
	s.transition(w, r, &in, func(e *model.Expediente) string {
		if e.State != model.StateInReview {
			return "El expediente no está en revisión"
		}
		coordinatorID := in.CoordinatorID
		now := time.Now().UTC()
		e.State = model.StateApproved
		e.CoordinatorID = &coordinatorID
		e.ReviewDate = &now
		return ""
	})
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	var in model.RejectInput
	s.transition(w, r, &in, func(e *model.Expediente) string {
		if e.State != model.StateInReview {
			return "El expediente no está en revisión"
		}
		coordinatorID := in.CoordinatorID
		remarks := in.Remarks
		now := time.Now().UTC()
		e.State = model.StateRejected
		e.CoordinatorID = &coordinatorID
		e.Remarks = &remarks
		e.ReviewDate = &now
		return ""
	})
}

// transition декодирует тело в body и применяет apply к делу под мьютексом.
// Непустая строка из apply — сообщение ошибки 400.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, body any, apply func(*model.Expediente) string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.expedientes[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Expediente no encontrado")
		return
	}
	if msg := apply(e); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	e.UpdatedAt = time.Now().UTC()
	writeMessage(w, http.StatusOK, "Expediente actualizado")
}

func (s *Server) listIndicios(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.wait(RouteListIndicios)

	s.mu.Lock()
	items := s.indiciosOf(id)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createIndicio(w http.ResponseWriter, r *http.Request) {
	var in model.CreateIndicioInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.expedientes[in.ExpedienteID]; !found {
		writeMessage(w, http.StatusNotFound, "Expediente no encontrado")
		return
	}
	s.nextInd++
	now := time.Now().UTC()
	s.indicios[s.nextInd] = &model.Indicio{
		ID:           s.nextInd,
		ExpedienteID: in.ExpedienteID,
		Description:  in.Description,
		Color:        in.Color,
		Size:         in.Size,
		Weight:       in.Weight,
		Location:     in.Location,
		TechnicianID: in.TechnicianID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Indicio creado", "id": s.nextInd})
}

func (s *Server) updateIndicio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.UpdateIndicioInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ind, found := s.indicios[id]
	if !found {
		writeMessage(w, http.StatusNotFound, "Indicio no encontrado")
		return
	}
	ind.Description = in.Description
	ind.Color, ind.Size, ind.Weight = in.Color, in.Size, in.Weight
	ind.Location = in.Location
	ind.UpdatedAt = time.Now().UTC()
	writeMessage(w, http.StatusOK, "Indicio actualizado")
}

func (s *Server) deleteIndicio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.indicios[id]; !found {
		writeMessage(w, http.StatusNotFound, "Indicio no encontrado")
		return
	}
	delete(s.indicios, id)
	writeMessage(w, http.StatusOK, "Indicio eliminado")
}

func (s *Server) reportExpedientes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, _ := strconv.Atoi(q.Get("estado"))
	from, to := q.Get("fechaInicio"), q.Get("fechaFin")

	s.mu.Lock()
	rows := make([]model.ExpedienteReportRow, 0, len(s.expedientes))
	for _, e := range s.expedientes {
		if state != 0 && int(e.State) != state {
			continue
		}
		day := e.CreatedAt.Format(time.DateOnly)
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		d := s.decorate(e)
		row := model.ExpedienteReportRow{
			ID:             d.ID,
			FileNumber:     d.FileNumber,
			Description:    d.Description,
			StateName:      d.StateName,
			TechnicianName: d.TechnicianName,
			CreatedAt:      d.CreatedAt,
			ReviewDate:     d.ReviewDate,
		}
		if d.CoordinatorName != nil {
			row.CoordinatorName = *d.CoordinatorName
		}
		rows = append(rows, row)
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) reportStatistics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[model.State]int)
	for _, e := range s.expedientes {
		counts[e.State]++
	}
	total := len(s.expedientes)

	stats := model.Statistics{ByState: make([]model.StateStatistic, 0, 4)}
	for _, st := range model.AllStates() {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(counts[st]) * 100 / float64(total)))
		}
		stats.ByState = append(stats.ByState, model.StateStatistic{
			StateName: st.String(), Count: counts[st], Percent: pct,
		})
	}
	active := 0
	for _, u := range s.users {
		if u.IsActive {
			active++
		}
	}
	stats.Totals = model.StatisticsTotals{
		TotalExpedientes: total,
		TotalIndicios:    len(s.indicios),
		TotalActiveUsers: active,
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) reportTechnicians(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.TechnicianReportRow, 0)
	for _, u := range s.sortedUsers(1) {
		row := model.TechnicianReportRow{UserID: u.ID, FullName: u.FullName}
		for _, e := range s.expedientes {
			if e.TechnicianID != u.ID {
				continue
			}
			row.TotalExpedientes++
			row.TotalIndicios += len(s.indiciosOf(e.ID))
			switch e.State {
			case model.StateApproved:
				row.Approved++
			case model.StateRejected:
				row.Rejected++
			}
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) reportCoordinators(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.CoordinatorReportRow, 0)
	for _, u := range s.sortedUsers(2) {
		row := model.CoordinatorReportRow{UserID: u.ID, FullName: u.FullName}
		for _, e := range s.expedientes {
			if !e.AssignedTo(u.ID) || !e.State.Terminal() {
				continue
			}
			row.TotalReviews++
			if e.State == model.StateApproved {
				row.Approved++
			} else {
				row.Rejected++
			}
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

// --- вспомогательные функции (вызываются под s.mu) ---

// decorate возвращает копию дела с денормализованными именами.
func (s *Server) decorate(e *model.Expediente) model.Expediente {
	d := *e
	d.StateName = e.State.String()
	if u, ok := s.users[e.TechnicianID]; ok {
		d.TechnicianName = u.FullName
	}
	if e.CoordinatorID != nil {
		if u, ok := s.users[*e.CoordinatorID]; ok {
			name := u.FullName
			d.CoordinatorName = &name
		}
	}
	return d
}

func (s *Server) indiciosOf(expedienteID int64) []model.Indicio {
	items := make([]model.Indicio, 0)
	for _, ind := range s.indicios {
		if ind.ExpedienteID == expedienteID {
			d := *ind
			if u, ok := s.users[ind.TechnicianID]; ok {
				d.TechnicianName = u.FullName
			}
			items = append(items, d)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Server) sortedUsers(roleCode int) []model.Usuario {
	users := make([]model.Usuario, 0)
	for _, u := range s.users {
		if u.RoleCode == roleCode {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("id inválido: %q", raw))
		return 0, false
	}
	return id, true
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
