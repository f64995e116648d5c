package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/notify"
)

// ExpedienteAPI — удалённые операции над делами.
type ExpedienteAPI interface {
	ListExpedientes(ctx context.Context) ([]model.Expediente, error)
	GetExpediente(ctx context.Context, id int64) (*model.Expediente, error)
	CreateExpediente(ctx context.Context, in model.CreateExpedienteInput) (*apiclient.Ack, error)
	UpdateExpediente(ctx context.Context, id int64, in model.UpdateExpedienteInput) (*apiclient.Ack, error)
	DeleteExpediente(ctx context.Context, id int64) (*apiclient.Ack, error)
	SubmitForReview(ctx context.Context, id int64, in model.SubmitInput) (*apiclient.Ack, error)
	Approve(ctx context.Context, id int64, in model.ApproveInput) (*apiclient.Ack, error)
	Reject(ctx context.Context, id int64, in model.RejectInput) (*apiclient.Ack, error)
}

// Expedientes — зеркало дел текущего пользователя.
type Expedientes struct {
	coll   *collection[model.Expediente]
	api    ExpedienteAPI
	actors ActorSource
	// detail — кэш карточек GET /expedientes/{id}; сбрасывается любой записью
	detail *expirable.LRU[int64, model.Expediente]
	logger *slog.Logger
}

// NewExpedientes создаёт зеркало дел.
// cacheSize и cacheTTL — параметры кэша карточек (DC_DETAIL_CACHE_*).
func NewExpedientes(
	api ExpedienteAPI,
	actors ActorSource,
	notifier notify.Notifier,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Expedientes {
	e := &Expedientes{
		api:    api,
		actors: actors,
		detail: expirable.NewLRU[int64, model.Expediente](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("component", "expedientes_mirror")),
	}
	e.coll = &collection[model.Expediente]{
		name:   "expedientes",
		actors: actors,
		fetch: func(ctx context.Context) ([]model.Expediente, bool, error) {
			items, err := api.ListExpedientes(ctx)
			return items, false, err
		},
		filter:           FilterExpedientes,
		notifier:         notifier,
		loadErrorMessage: "ошибка загрузки дел",
		onWrite:          e.detail.Purge,
		logger:           e.logger,
	}
	return e
}

// Refresh перезагружает зеркало. Во время загрузки повторный вызов ничего не делает.
func (e *Expedientes) Refresh(ctx context.Context) error {
	return e.coll.refresh(ctx)
}

// OnIdentityChange — слушатель identity.Context: вход перезагружает зеркало,
// выход очищает его без запросов.
func (e *Expedientes) OnIdentityChange(ctx context.Context, actor *model.Actor) {
	e.detail.Purge()
	e.coll.clear()
	if actor == nil {
		return
	}
	_ = e.coll.refresh(ctx)
}

// Items возвращает копию видимых дел.
func (e *Expedientes) Items() []model.Expediente {
	return e.coll.snapshot()
}

// Find ищет дело в зеркале.
func (e *Expedientes) Find(id int64) (model.Expediente, bool) {
	return e.coll.find(func(x model.Expediente) bool { return x.ID == id })
}

// Loading — идёт загрузка.
func (e *Expedientes) Loading() bool {
	return e.coll.isLoading()
}

// Err — ошибка последней загрузки (nil после успешной).
func (e *Expedientes) Err() error {
	return e.coll.lastErr()
}

// Detail возвращает карточку дела через кэш.
// Дело, невидимое текущему пользователю, считается отсутствующим.
func (e *Expedientes) Detail(ctx context.Context, id int64) (*model.Expediente, error) {
	actor := e.actors.Current()
	if actor == nil {
		return nil, fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}

	if cached, ok := e.detail.Get(id); ok {
		detailCacheHitsTotal.Inc()
		if !ExpedienteVisible(actor, &cached) {
			return nil, fault.Newf(fault.KindNotFound, "дело %d не найдено", id)
		}
		return &cached, nil
	}
	detailCacheMissesTotal.Inc()

	exp, err := e.api.GetExpediente(ctx, id)
	if err != nil {
		if apiclient.StatusOf(err) == 404 {
			return nil, fault.Wrap(fault.KindNotFound, remoteMessage(err, "дело не найдено"), err)
		}
		return nil, fault.Wrap(fault.KindRemote, remoteMessage(err, "ошибка загрузки дела"), err)
	}
	e.detail.Add(id, *exp)

	if !ExpedienteVisible(actor, exp) {
		return nil, fault.Newf(fault.KindNotFound, "дело %d не найдено", id)
	}
	return exp, nil
}

// Create регистрирует дело.
func (e *Expedientes) Create(ctx context.Context, in model.CreateExpedienteInput) error {
	return e.coll.mutate(ctx, "create", "дело зарегистрировано", "ошибка регистрации дела",
		func(ctx context.Context) error {
			_, err := e.api.CreateExpediente(ctx, in)
			return err
		})
}

// Update изменяет дело.
func (e *Expedientes) Update(ctx context.Context, id int64, in model.UpdateExpedienteInput) error {
	return e.coll.mutate(ctx, "update", "дело обновлено", "ошибка обновления дела",
		func(ctx context.Context) error {
			_, err := e.api.UpdateExpediente(ctx, id, in)
			return err
		})
}

// Delete удаляет дело (индиции удаляются каскадно на стороне API).
func (e *Expedientes) Delete(ctx context.Context, id int64) error {
	return e.coll.mutate(ctx, "delete", "дело удалено", "ошибка удаления дела",
		func(ctx context.Context) error {
			_, err := e.api.DeleteExpediente(ctx, id)
			return err
		})
}

// SubmitForReview отправляет дело координатору.
func (e *Expedientes) SubmitForReview(ctx context.Context, id, coordinatorID int64) error {
	return e.coll.mutate(ctx, "submit", "дело отправлено на проверку", "ошибка отправки на проверку",
		func(ctx context.Context) error {
			_, err := e.api.SubmitForReview(ctx, id, model.SubmitInput{CoordinatorID: coordinatorID})
			return err
		})
}

// Approve утверждает дело.
func (e *Expedientes) Approve(ctx context.Context, id, coordinatorID int64) error {
	return e.coll.mutate(ctx, "approve", "дело утверждено", "ошибка утверждения дела",
		func(ctx context.Context) error {
			_, err := e.api.Approve(ctx, id, model.ApproveInput{CoordinatorID: coordinatorID})
			return err
		})
}

// Reject отклоняет дело. Замечания передаются как есть.
func (e *Expedientes) Reject(ctx context.Context, id, coordinatorID int64, remarks string) error {
	return e.coll.mutate(ctx, "reject", "дело отклонено", "ошибка отклонения дела",
		func(ctx context.Context) error {
			_, err := e.api.Reject(ctx, id, model.RejectInput{CoordinatorID: coordinatorID, Remarks: remarks})
			return err
		})
}
