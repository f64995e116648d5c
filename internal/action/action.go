// Пакет action — действия консоли над делами и индициями.
// Каждое действие: текущий пользователь, цель из зеркала, проверка workflow,
// одна запись через зеркало. Повторная загрузка выполняется только зеркалом.
package action

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/validate"
	"github.com/bigkaa/dicri-console/internal/domain/workflow"
	"github.com/bigkaa/dicri-console/internal/notify"
)

// Имена действий (метка action метрики dc_actions_total).
const (
	ActionSubmit           = "submit"
	ActionApprove          = "approve"
	ActionReject           = "reject"
	ActionDelete           = "delete"
	ActionCreateExpediente = "create_expediente"
	ActionUpdateExpediente = "update_expediente"
	ActionCreateIndicio    = "create_indicio"
	ActionUpdateIndicio    = "update_indicio"
	ActionDeleteIndicio    = "delete_indicio"
)

var actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dc_actions_total",
	Help: "Действия консоли по результату (ok или вид ошибки).",
}, []string{"action", "result"})

// ActorSource — источник текущего пользователя.
type ActorSource interface {
	Current() *model.Actor
}

// Expedientes — зеркало дел (mirror.Expedientes).
type Expedientes interface {
	Find(id int64) (model.Expediente, bool)
	Create(ctx context.Context, in model.CreateExpedienteInput) error
	Update(ctx context.Context, id int64, in model.UpdateExpedienteInput) error
	Delete(ctx context.Context, id int64) error
	SubmitForReview(ctx context.Context, id, coordinatorID int64) error
	Approve(ctx context.Context, id, coordinatorID int64) error
	Reject(ctx context.Context, id, coordinatorID int64, remarks string) error
}

// Indicios — зеркало индиций (mirror.Indicios).
type Indicios interface {
	Find(id int64) (model.Indicio, bool)
	IndiciosOf(ctx context.Context, expedienteID int64) ([]model.Indicio, error)
	Create(ctx context.Context, in model.CreateIndicioInput) error
	Update(ctx context.Context, id int64, in model.UpdateIndicioInput) error
	Delete(ctx context.Context, id int64) error
}

// Coordinators проверяет выбранного координатора (directory.Directory).
type Coordinators interface {
	IsCoordinator(ctx context.Context, id int64) (bool, error)
}

// Orchestrator выполняет действия от имени текущего пользователя.
//
// Ошибки проверок и чтения сообщаются уведомлением здесь; ошибки записи
// уведомляет зеркало. На каждую ошибку приходится ровно одно уведомление.
type Orchestrator struct {
	actors   ActorSource
	exps     Expedientes
	inds     Indicios
	coords   Coordinators
	notifier notify.Notifier
	logger   *slog.Logger
}

// New создаёт Orchestrator.
func New(
	actors ActorSource,
	exps Expedientes,
	inds Indicios,
	coords Coordinators,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		actors:   actors,
		exps:     exps,
		inds:     inds,
		coords:   coords,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "actions")),
	}
}

// Submit отправляет дело на проверку координатору.
func (o *Orchestrator) Submit(ctx context.Context, id, coordinatorID int64) error {
	actor, target, err := o.target(id)
	if err != nil {
		return o.fail(ActionSubmit, id, err)
	}

	indicios, err := o.inds.IndiciosOf(ctx, id)
	if err != nil {
		return o.fail(ActionSubmit, id, err)
	}
	valid := false
	if coordinatorID > 0 {
		valid, err = o.coords.IsCoordinator(ctx, coordinatorID)
		if err != nil {
			return o.fail(ActionSubmit, id,
				fault.Wrap(fault.KindRemote, "ошибка загрузки координаторов", err))
		}
	}

	_, err = workflow.Evaluate(actor, &target, workflow.Request{
		Event:            workflow.EventSubmit,
		CoordinatorID:    coordinatorID,
		CoordinatorValid: valid,
		IndicioCount:     len(indicios),
	})
	if err != nil {
		return o.fail(ActionSubmit, id, err)
	}

	return o.done(ActionSubmit, id, o.exps.SubmitForReview(ctx, id, coordinatorID))
}

// Approve утверждает дело от имени текущего координатора.
func (o *Orchestrator) Approve(ctx context.Context, id int64) error {
	actor, target, err := o.target(id)
	if err != nil {
		return o.fail(ActionApprove, id, err)
	}
	if _, err := workflow.Evaluate(actor, &target, workflow.Request{Event: workflow.EventApprove}); err != nil {
		return o.fail(ActionApprove, id, err)
	}
	return o.done(ActionApprove, id, o.exps.Approve(ctx, id, actor.ID))
}

// Reject отклоняет дело. Замечания обязательны и передаются как есть.
func (o *Orchestrator) Reject(ctx context.Context, id int64, remarks string) error {
	actor, target, err := o.target(id)
	if err != nil {
		return o.fail(ActionReject, id, err)
	}
	_, err = workflow.Evaluate(actor, &target, workflow.Request{
		Event:   workflow.EventReject,
		Remarks: remarks,
	})
	if err != nil {
		return o.fail(ActionReject, id, err)
	}
	return o.done(ActionReject, id, o.exps.Reject(ctx, id, actor.ID, remarks))
}

// Delete удаляет дело в состоянии Drafting. Индиции удаляет API.
func (o *Orchestrator) Delete(ctx context.Context, id int64) error {
	actor, target, err := o.target(id)
	if err != nil {
		return o.fail(ActionDelete, id, err)
	}
	if err := workflow.CanDelete(actor, &target); err != nil {
		return o.fail(ActionDelete, id, err)
	}
	return o.done(ActionDelete, id, o.exps.Delete(ctx, id))
}

// CreateExpediente регистрирует дело от имени текущего технического специалиста.
// Дело создаётся в состоянии Drafting.
func (o *Orchestrator) CreateExpediente(ctx context.Context, in model.CreateExpedienteInput) error {
	actor := o.actors.Current()
	if err := workflow.CanCreate(actor); err != nil {
		return o.fail(ActionCreateExpediente, 0, err)
	}
	in.TechnicianID = actor.ID
	in.State = model.StateDrafting
	if err := validate.CreateExpediente(in); err != nil {
		return o.fail(ActionCreateExpediente, 0, err)
	}
	return o.done(ActionCreateExpediente, 0, o.exps.Create(ctx, in))
}

// UpdateExpediente изменяет описание дела в состоянии Drafting.
// Номер, состояние и данные проверки берутся из зеркала.
func (o *Orchestrator) UpdateExpediente(ctx context.Context, id int64, in model.UpdateExpedienteInput) error {
	actor, target, err := o.target(id)
	if err != nil {
		return o.fail(ActionUpdateExpediente, id, err)
	}
	if err := workflow.CanEditDraft(actor, &target); err != nil {
		return o.fail(ActionUpdateExpediente, id, err)
	}
	in.FileNumber = target.FileNumber
	in.State = target.State
	in.Remarks = target.Remarks
	in.CoordinatorID = target.CoordinatorID
	in.ReviewDate = target.ReviewDate
	if err := validate.UpdateExpediente(in); err != nil {
		return o.fail(ActionUpdateExpediente, id, err)
	}
	return o.done(ActionUpdateExpediente, id, o.exps.Update(ctx, id, in))
}

// CreateIndicio добавляет индиций к делу в состоянии Drafting.
func (o *Orchestrator) CreateIndicio(ctx context.Context, in model.CreateIndicioInput) error {
	actor, parent, err := o.target(in.ExpedienteID)
	if err != nil {
		return o.fail(ActionCreateIndicio, in.ExpedienteID, err)
	}
	if err := workflow.CanEditDraft(actor, &parent); err != nil {
		return o.fail(ActionCreateIndicio, in.ExpedienteID, err)
	}
	in.TechnicianID = actor.ID
	if err := validate.CreateIndicio(in); err != nil {
		return o.fail(ActionCreateIndicio, in.ExpedienteID, err)
	}
	return o.done(ActionCreateIndicio, in.ExpedienteID, o.inds.Create(ctx, in))
}

// UpdateIndicio изменяет индиций дела в состоянии Drafting.
func (o *Orchestrator) UpdateIndicio(ctx context.Context, id int64, in model.UpdateIndicioInput) error {
	actor, parent, err := o.indicioParent(id)
	if err != nil {
		return o.fail(ActionUpdateIndicio, parent.ID, err)
	}
	if err := workflow.CanEditDraft(actor, &parent); err != nil {
		return o.fail(ActionUpdateIndicio, parent.ID, err)
	}
	if err := validate.UpdateIndicio(in); err != nil {
		return o.fail(ActionUpdateIndicio, parent.ID, err)
	}
	return o.done(ActionUpdateIndicio, parent.ID, o.inds.Update(ctx, id, in))
}

// DeleteIndicio удаляет индиций дела в состоянии Drafting.
func (o *Orchestrator) DeleteIndicio(ctx context.Context, id int64) error {
	actor, parent, err := o.indicioParent(id)
	if err != nil {
		return o.fail(ActionDeleteIndicio, parent.ID, err)
	}
	if err := workflow.CanEditDraft(actor, &parent); err != nil {
		return o.fail(ActionDeleteIndicio, parent.ID, err)
	}
	return o.done(ActionDeleteIndicio, parent.ID, o.inds.Delete(ctx, id))
}

// target возвращает текущего пользователя и дело из зеркала.
func (o *Orchestrator) target(id int64) (*model.Actor, model.Expediente, error) {
	actor := o.actors.Current()
	if actor == nil {
		return nil, model.Expediente{}, fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}
	e, ok := o.exps.Find(id)
	if !ok {
		return actor, model.Expediente{}, fault.Newf(fault.KindNotFound, "дело %d не найдено", id)
	}
	return actor, e, nil
}

// indicioParent возвращает текущего пользователя и родительское дело индиция.
func (o *Orchestrator) indicioParent(id int64) (*model.Actor, model.Expediente, error) {
	actor := o.actors.Current()
	if actor == nil {
		return nil, model.Expediente{}, fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}
	ind, ok := o.inds.Find(id)
	if !ok {
		return actor, model.Expediente{}, fault.Newf(fault.KindNotFound, "индиций %d не найден", id)
	}
	return o.target(ind.ExpedienteID)
}

// fail сообщает ошибку проверки или чтения.
func (o *Orchestrator) fail(action string, id int64, err error) error {
	kind := fault.KindOf(err)
	if kind == "" {
		kind = fault.KindRemote
		err = fault.Wrap(kind, "ошибка выполнения действия", err)
	}
	actionsTotal.WithLabelValues(action, string(kind)).Inc()
	o.logger.Warn("Действие отклонено",
		slog.String("action", action),
		slog.Int64("expediente_id", id),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	o.notifier.Error(fault.MessageOf(err, "ошибка выполнения действия"))
	return err
}

// done учитывает результат записи. Уведомление уже отправлено зеркалом.
func (o *Orchestrator) done(action string, id int64, err error) error {
	if err != nil {
		kind := fault.KindOf(err)
		actionsTotal.WithLabelValues(action, string(kind)).Inc()
		o.logger.Warn("Ошибка выполнения действия",
			slog.String("action", action),
			slog.Int64("expediente_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	actionsTotal.WithLabelValues(action, "ok").Inc()
	o.logger.Info("Действие выполнено",
		slog.String("action", action),
		slog.Int64("expediente_id", id),
	)
	return nil
}
