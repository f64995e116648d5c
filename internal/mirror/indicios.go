package mirror

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/notify"
)

// IndicioAPI — удалённые операции над индициями.
type IndicioAPI interface {
	ListIndicios(ctx context.Context, expedienteID int64) ([]model.Indicio, error)
	CreateIndicio(ctx context.Context, in model.CreateIndicioInput) (*apiclient.Ack, error)
	UpdateIndicio(ctx context.Context, id int64, in model.UpdateIndicioInput) (*apiclient.Ack, error)
	DeleteIndicio(ctx context.Context, id int64) (*apiclient.Ack, error)
}

// Indicios — зеркало индиций одного выбранного дела.
// Без выбранного дела зеркало пусто и запросов не делает.
type Indicios struct {
	coll   *collection[model.Indicio]
	api    IndicioAPI
	actors ActorSource
	logger *slog.Logger

	parentMu sync.RWMutex
	parent   *int64
}

// NewIndicios создаёт зеркало индиций.
func NewIndicios(api IndicioAPI, actors ActorSource, notifier notify.Notifier, logger *slog.Logger) *Indicios {
	ix := &Indicios{
		api:    api,
		actors: actors,
		logger: logger.With(slog.String("component", "indicios_mirror")),
	}
	ix.coll = &collection[model.Indicio]{
		name:   "indicios",
		actors: actors,
		fetch: func(ctx context.Context) ([]model.Indicio, bool, error) {
			parent := ix.Parent()
			if parent == nil {
				return nil, true, nil
			}
			items, err := api.ListIndicios(ctx, *parent)
			return items, false, err
		},
		filter:           FilterIndicios,
		notifier:         notifier,
		loadErrorMessage: "ошибка загрузки индиций",
		logger:           ix.logger,
	}
	return ix
}

// SetParent выбирает дело. Тот же родитель — ничего не делает;
// nil очищает зеркало без запроса.
func (ix *Indicios) SetParent(ctx context.Context, expedienteID *int64) error {
	ix.parentMu.Lock()
	if sameParent(ix.parent, expedienteID) {
		ix.parentMu.Unlock()
		return nil
	}
	if expedienteID == nil {
		ix.parent = nil
	} else {
		id := *expedienteID
		ix.parent = &id
	}
	ix.parentMu.Unlock()

	ix.coll.clear()
	if expedienteID == nil {
		return nil
	}
	return ix.coll.refresh(ctx)
}

// Parent возвращает выбранное дело или nil.
func (ix *Indicios) Parent() *int64 {
	ix.parentMu.RLock()
	defer ix.parentMu.RUnlock()

	if ix.parent == nil {
		return nil
	}
	id := *ix.parent
	return &id
}

// Refresh перезагружает индиции выбранного дела.
func (ix *Indicios) Refresh(ctx context.Context) error {
	return ix.coll.refresh(ctx)
}

// OnIdentityChange — слушатель identity.Context.
// Выход очищает зеркало и выбор дела.
func (ix *Indicios) OnIdentityChange(ctx context.Context, actor *model.Actor) {
	ix.coll.clear()
	if actor == nil {
		ix.parentMu.Lock()
		ix.parent = nil
		ix.parentMu.Unlock()
		return
	}
	_ = ix.coll.refresh(ctx)
}

// Items возвращает копию видимых индиций.
func (ix *Indicios) Items() []model.Indicio {
	return ix.coll.snapshot()
}

// Find ищет индиций в зеркале.
func (ix *Indicios) Find(id int64) (model.Indicio, bool) {
	return ix.coll.find(func(x model.Indicio) bool { return x.ID == id })
}

// Loading — идёт загрузка.
func (ix *Indicios) Loading() bool {
	return ix.coll.isLoading()
}

// Err — ошибка последней загрузки.
func (ix *Indicios) Err() error {
	return ix.coll.lastErr()
}

// IndiciosOf возвращает видимые индиции дела: из зеркала, если оно
// загружено для этого дела, иначе разовым запросом, не трогая зеркало.
func (ix *Indicios) IndiciosOf(ctx context.Context, expedienteID int64) ([]model.Indicio, error) {
	if p := ix.Parent(); p != nil && *p == expedienteID && !ix.Loading() && ix.Err() == nil {
		return ix.Items(), nil
	}
	items, err := ix.list(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	return FilterIndicios(ix.actors.Current(), items), nil
}

func (ix *Indicios) list(ctx context.Context, expedienteID int64) ([]model.Indicio, error) {
	items, err := ix.api.ListIndicios(ctx, expedienteID)
	if err != nil {
		return nil, fault.Wrap(fault.KindRemote, remoteMessage(err, "ошибка загрузки индиций"), err)
	}
	return items, nil
}

// Create добавляет индиций.
func (ix *Indicios) Create(ctx context.Context, in model.CreateIndicioInput) error {
	return ix.coll.mutate(ctx, "create", "индиций добавлен", "ошибка добавления индиция",
		func(ctx context.Context) error {
			_, err := ix.api.CreateIndicio(ctx, in)
			return err
		})
}

// Update изменяет индиций.
func (ix *Indicios) Update(ctx context.Context, id int64, in model.UpdateIndicioInput) error {
	return ix.coll.mutate(ctx, "update", "индиций обновлён", "ошибка обновления индиция",
		func(ctx context.Context) error {
			_, err := ix.api.UpdateIndicio(ctx, id, in)
			return err
		})
}

// Delete удаляет индиций.
func (ix *Indicios) Delete(ctx context.Context, id int64) error {
	return ix.coll.mutate(ctx, "delete", "индиций удалён", "ошибка удаления индиция",
		func(ctx context.Context) error {
			_, err := ix.api.DeleteIndicio(ctx, id)
			return err
		})
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
