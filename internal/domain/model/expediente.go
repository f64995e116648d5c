// Пакет model — доменные модели DICRI Console.
// Имена JSON-полей совпадают с контрактом удалённого DICRI API.
package model

import (
	"fmt"
	"time"
)

// State — состояние expediente в процессе проверки.
// Числовые значения совпадают с IdEstado удалённого API.
type State int

const (
	// StateDrafting — регистрация (технический специалист наполняет дело)
	StateDrafting State = 1
	// StateInReview — на проверке у координатора
	StateInReview State = 2
	// StateApproved — утверждено (конечное состояние)
	StateApproved State = 3
	// StateRejected — отклонено (конечное состояние)
	StateRejected State = 4
)

// stateNames — отображаемые имена состояний (StateName в API).
var stateNames = map[State]string{
	StateDrafting: "Registrando",
	StateInReview: "En Revisión",
	StateApproved: "Aprobado",
	StateRejected: "Rechazado",
}

// Valid проверяет, что значение входит в набор состояний.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Terminal возвращает true для Approved и Rejected.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// String возвращает отображаемое имя состояния.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AllStates возвращает все состояния в порядке жизненного цикла.
func AllStates() []State {
	return []State{StateDrafting, StateInReview, StateApproved, StateRejected}
}

// Expediente — дело (case file) с вещественными доказательствами.
type Expediente struct {
	// ID — идентификатор дела
	ID int64 `json:"IdExpediente"`
	// FileNumber — номер дела, уникален, задаётся при создании и не меняется
	FileNumber string `json:"FileNumber"`
	// Description — описание дела
	Description string `json:"Description"`
	// TechnicianID — технический специалист, зарегистрировавший дело
	TechnicianID int64 `json:"IdTecnicoRegistro"`
	// TechnicianName — имя технического специалиста (денормализовано сервером)
	TechnicianName string `json:"TecnicoRegistro,omitempty"`
	// State — текущее состояние
	State State `json:"IdEstado"`
	// StateName — имя состояния от сервера
	StateName string `json:"StateName,omitempty"`
	// Remarks — замечания при отклонении (только в StateRejected)
	Remarks *string `json:"ObservacionesExpediente,omitempty"`
	// CoordinatorID — назначенный координатор (nil — не назначен)
	CoordinatorID *int64 `json:"IdCoordinadorRevision,omitempty"`
	// CoordinatorName — имя координатора
	CoordinatorName *string `json:"CoordinadorRevision,omitempty"`
	// ReviewDate — дата проверки
	ReviewDate *time.Time `json:"ReviewDate,omitempty"`
	CreatedAt  time.Time  `json:"CreatedAt"`
	UpdatedAt  time.Time  `json:"UpdatedAt"`
}

// Unclaimed — дело на проверке без назначенного координатора.
func (e *Expediente) Unclaimed() bool {
	return e.State == StateInReview && e.CoordinatorID == nil
}

// AssignedTo проверяет, назначено ли дело указанному координатору.
func (e *Expediente) AssignedTo(coordinatorID int64) bool {
	return e.CoordinatorID != nil && *e.CoordinatorID == coordinatorID
}

// CreateExpedienteInput — тело POST /expedientes.
type CreateExpedienteInput struct {
	FileNumber   string `json:"FileNumber"`
	Description  string `json:"Description"`
	TechnicianID int64  `json:"IdTecnicoRegistro"`
	State        State  `json:"IdEstado"`
}

// UpdateExpedienteInput — тело PUT /expedientes/{id}.
// FileNumber передаётся обратно без изменений (неизменяемое поле).
type UpdateExpedienteInput struct {
	FileNumber    string     `json:"FileNumber"`
	Description   string     `json:"Description"`
	State         State      `json:"IdEstado"`
	Remarks       *string    `json:"ObservacionesExpediente"`
	CoordinatorID *int64     `json:"IdCoordinadorRevision"`
	ReviewDate    *time.Time `json:"ReviewDate"`
}

// SubmitInput — тело POST /expedientes/{id}/enviar-revision.
type SubmitInput struct {
	CoordinatorID int64 `json:"IdCoordinadorRevision"`
}

// ApproveInput — тело POST /expedientes/{id}/aprobar.
type ApproveInput struct {
	CoordinatorID int64 `json:"IdCoordinadorRevision"`
}

// RejectInput — тело POST /expedientes/{id}/rechazar.
type RejectInput struct {
	CoordinatorID int64  `json:"IdCoordinadorRevision"`
	Remarks       string `json:"ObservacionesExpediente"`
}
