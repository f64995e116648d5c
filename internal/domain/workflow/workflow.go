// Пакет workflow — конечный автомат проверки expediente.
//
// Жизненный цикл:
//   - Drafting → InReview (submit, технический специалист-владелец)
//   - InReview → Approved (approve, координатор)
//   - InReview → Rejected (reject, координатор, непустые замечания)
//
// Approved и Rejected — конечные состояния, переходы из них запрещены.
//
// Два уровня:
//   - Apply — чистая матрица переходов, без учёта того, кто действует
//   - Evaluate — проверки роли, состояния и данных запроса в фиксированном порядке
package workflow

import (
	"fmt"
	"strings"

	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
)

// Event — событие жизненного цикла expediente.
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// AllEvents возвращает все события автомата.
func AllEvents() []Event {
	return []Event{EventSubmit, EventApprove, EventReject}
}

// CodeInvalidTransition — машиночитаемый код недопустимого перехода.
const CodeInvalidTransition = "INVALID_TRANSITION"

// transitions — матрица допустимых переходов.
// Ключ — текущее состояние, значение — событие и целевое состояние.
var transitions = map[model.State]map[Event]model.State{
	model.StateDrafting: {EventSubmit: model.StateInReview},
	model.StateInReview: {EventApprove: model.StateApproved, EventReject: model.StateRejected},
	model.StateApproved: {}, // Конечное состояние
	model.StateRejected: {}, // Конечное состояние
}

// TransitionError — ошибка недопустимого перехода.
// Несёт текущее состояние и событие, которое пытались применить.
type TransitionError struct {
	Code    string // INVALID_TRANSITION
	Message string
	From    model.State
	Event   Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FaultKind — недопустимый переход сообщается как InvalidState.
func (e *TransitionError) FaultKind() fault.Kind {
	return fault.KindInvalidState
}

func invalidTransition(from model.State, ev Event) *TransitionError {
	return &TransitionError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("событие %q недопустимо в состоянии %s", ev, from),
		From:    from,
		Event:   ev,
	}
}

// Apply возвращает состояние после события.
// Для пары (состояние, событие) вне матрицы возвращает *TransitionError.
func Apply(from model.State, ev Event) (model.State, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, invalidTransition(from, ev)
	}
	return next, nil
}

// CanApply проверяет, допустимо ли событие в состоянии.
func CanApply(from model.State, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}

// Request — событие и данные запроса для Evaluate.
type Request struct {
	Event Event
	// CoordinatorID — координатор, которому отправляется дело (submit)
	CoordinatorID int64
	// CoordinatorValid — CoordinatorID принадлежит активному координатору (submit)
	CoordinatorValid bool
	// IndicioCount — число индициев дела (submit)
	IndicioCount int
	// Remarks — замечания при отклонении (reject), хранятся как есть
	Remarks string
}

// Evaluate проверяет событие от имени actor и возвращает целевое состояние.
//
// Порядок проверок для approve и reject: роль и назначение (PermissionDenied),
// состояние (InvalidState), данные запроса (ValidationFailed).
// Для submit число индициев проверяется первым: дело без индициев
// не покидает Drafting независимо от того, кто его отправляет.
func Evaluate(actor *model.Actor, e *model.Expediente, req Request) (model.State, error) {
	if actor == nil {
		return 0, fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}

	switch req.Event {
	case EventSubmit:
		return evaluateSubmit(actor, e, req)
	case EventApprove, EventReject:
		return evaluateReview(actor, e, req)
	default:
		return e.State, invalidTransition(e.State, req.Event)
	}
}

func evaluateSubmit(actor *model.Actor, e *model.Expediente, req Request) (model.State, error) {
	if req.IndicioCount < 1 {
		return e.State, validationFailed("indicios", "нельзя отправить на проверку дело без индициев")
	}
	if !isOwner(actor, e) {
		return e.State, fault.New(fault.KindPermissionDenied,
			"отправить на проверку может только зарегистрировавший дело технический специалист")
	}
	next, err := Apply(e.State, EventSubmit)
	if err != nil {
		return e.State, err
	}
	if req.CoordinatorID <= 0 || !req.CoordinatorValid {
		return e.State, validationFailed("IdCoordinadorRevision", "необходимо выбрать координатора")
	}
	return next, nil
}

func evaluateReview(actor *model.Actor, e *model.Expediente, req Request) (model.State, error) {
	if !mayReview(actor, e) {
		return e.State, fault.New(fault.KindPermissionDenied,
			"дело назначено другому координатору")
	}
	next, err := Apply(e.State, req.Event)
	if err != nil {
		return e.State, err
	}
	if req.Event == EventReject && strings.TrimSpace(req.Remarks) == "" {
		return e.State, validationFailed("ObservacionesExpediente", "необходимо указать причину отклонения")
	}
	return next, nil
}

// CanDelete проверяет удаление дела: владелец-технический специалист,
// состояние Drafting.
func CanDelete(actor *model.Actor, e *model.Expediente) error {
	return CanEditDraft(actor, e)
}

// CanEditDraft проверяет изменение дела и его индициев:
// владелец-технический специалист, состояние Drafting.
func CanEditDraft(actor *model.Actor, e *model.Expediente) error {
	if actor == nil {
		return fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}
	if !isOwner(actor, e) {
		return fault.New(fault.KindPermissionDenied,
			"изменять дело может только зарегистрировавший его технический специалист")
	}
	if e.State != model.StateDrafting {
		return fault.Newf(fault.KindInvalidState,
			"дело в состоянии %s изменять нельзя", e.State)
	}
	return nil
}

// CanCreate проверяет право регистрации нового дела.
func CanCreate(actor *model.Actor) error {
	if actor == nil {
		return fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}
	if !rbac.HasPermission(roleOf(actor), rbac.PermCreateExpediente) {
		return fault.New(fault.KindPermissionDenied, "недостаточно прав для регистрации дела")
	}
	return nil
}

// AllowedEvents возвращает события, для которых сейчас проходят
// проверки роли и состояния. Данные запроса не учитываются.
func AllowedEvents(actor *model.Actor, e *model.Expediente) []Event {
	if actor == nil {
		return nil
	}
	var out []Event
	for _, ev := range AllEvents() {
		if !CanApply(e.State, ev) {
			continue
		}
		switch ev {
		case EventSubmit:
			if isOwner(actor, e) {
				out = append(out, ev)
			}
		case EventApprove, EventReject:
			if mayReview(actor, e) {
				out = append(out, ev)
			}
		}
	}
	return out
}

func roleOf(actor *model.Actor) rbac.Role {
	return rbac.Role(actor.RoleCode)
}

// isOwner — actor технический специалист и зарегистрировал дело.
func isOwner(actor *model.Actor, e *model.Expediente) bool {
	return roleOf(actor) == rbac.RoleTechnician && e.TechnicianID == actor.ID
}

// mayReview — actor координатор, дело назначено ему или не назначено никому.
func mayReview(actor *model.Actor, e *model.Expediente) bool {
	if roleOf(actor) != rbac.RoleCoordinator {
		return false
	}
	return e.CoordinatorID == nil || *e.CoordinatorID == actor.ID
}

func validationFailed(field, message string) *fault.Error {
	return &fault.Error{
		Kind:    fault.KindValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}
