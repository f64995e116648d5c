// Пакет mirror — локальные зеркала удалённых коллекций (дела и индиции).
//
// Правила синхронизации:
//   - Refresh: одна загрузка за раз в пределах поколения; вызов во время
//     загрузки ничего не делает
//   - после каждой успешной загрузки применяется фильтр видимости по роли
//   - запись: ровно один удалённый вызов, затем безусловный Refresh
//     (локальных правок нет, запись сбрасывает кэш чтения)
//   - при ошибке записи зеркало не меняется, ошибка возвращается вызывающему
//   - смена пользователя перезагружает зеркало, выход очищает его без запросов
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

// ActorSource — источник текущего пользователя (identity.Context).
type ActorSource interface {
	Current() *model.Actor
}

// fetchFunc загружает коллекцию. skip=true — загружать нечего (нет родителя),
// зеркало становится пустым без запроса.
type fetchFunc[T any] func(ctx context.Context) (items []T, skip bool, err error)

// filterFunc оставляет элементы, видимые actor.
type filterFunc[T any] func(actor *model.Actor, items []T) []T

// collection — общее ядро зеркала.
type collection[T any] struct {
	name     string
	actors   ActorSource
	fetch    fetchFunc[T]
	filter   filterFunc[T]
	notifier notify.Notifier
	// loadErrorMessage — уведомление при ошибке загрузки
	loadErrorMessage string
	// onWrite вызывается после каждой успешной записи до Refresh
	onWrite func()
	logger  *slog.Logger

	mu      sync.RWMutex
	items   []T
	loading bool
	err     error
	// gen увеличивается при очистке: результат загрузки, начатой
	// до очистки, отбрасывается
	gen uint64
	// loadingGen — поколение идущей загрузки
	loadingGen uint64
}

// refresh загружает коллекцию и заменяет зеркало.
// Если загрузка текущего поколения уже идёт, возвращает nil сразу.
// Загрузка прошлого поколения новую не блокирует.
func (c *collection[T]) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.loading && c.loadingGen == c.gen {
		c.mu.Unlock()
		refreshTotal.WithLabelValues(c.name, "skipped").Inc()
		return nil
	}
	actor := c.actors.Current()
	if actor == nil {
		c.items, c.err = nil, nil
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.loading = true
	c.loadingGen = gen
	c.mu.Unlock()

	loadingGauge.WithLabelValues(c.name).Set(1)
	items, skip, err := c.fetch(ctx)

	c.mu.Lock()
	if gen != c.gen {
		// признак загрузки мог уже занять запрос нового поколения
		if c.loading && c.loadingGen == gen {
			c.loading = false
			loadingGauge.WithLabelValues(c.name).Set(0)
		}
		c.mu.Unlock()
		refreshTotal.WithLabelValues(c.name, "discarded").Inc()
		return nil
	}
	c.loading = false
	loadingGauge.WithLabelValues(c.name).Set(0)
	if err != nil {
		c.err = err
		c.mu.Unlock()

		refreshTotal.WithLabelValues(c.name, "error").Inc()
		c.logger.Warn("Ошибка загрузки коллекции",
			slog.String("collection", c.name),
			slog.String("error", err.Error()),
		)
		c.notifier.Error(c.loadErrorMessage)
		return fault.Wrap(fault.KindRemote, remoteMessage(err, c.loadErrorMessage), err)
	}

	if skip {
		c.items = nil
	} else {
		c.items = c.filter(actor, items)
	}
	c.err = nil
	n := len(c.items)
	c.mu.Unlock()

	refreshTotal.WithLabelValues(c.name, "ok").Inc()
	c.logger.Debug("Коллекция загружена",
		slog.String("collection", c.name),
		slog.Int("visible", n),
		slog.Int("fetched", len(items)),
	)
	return nil
}

// mutate выполняет одну запись и при успехе безусловно перезагружает зеркало.
// При ошибке зеркало не меняется, возвращается fault.KindRemote.
func (c *collection[T]) mutate(ctx context.Context, op, successMessage, errorMessage string, call func(ctx context.Context) error) error {
	if err := call(ctx); err != nil {
		mutationsTotal.WithLabelValues(c.name, op, "error").Inc()
		msg := remoteMessage(err, errorMessage)
		c.logger.Warn("Ошибка записи",
			slog.String("collection", c.name),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		c.notifier.Error(msg)
		return fault.Wrap(fault.KindRemote, msg, err)
	}

	mutationsTotal.WithLabelValues(c.name, op, "ok").Inc()
	if c.onWrite != nil {
		c.onWrite()
	}
	c.notifier.Success(successMessage)

	// Ошибка перезагрузки уже сообщена уведомлением и сохранена в Err();
	// сама запись выполнена.
	_ = c.refresh(ctx)
	return nil
}

// clear очищает зеркало без запросов. Идущая загрузка остаётся
// в прошлом поколении и будет отброшена.
func (c *collection[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.err = nil
	c.gen++
}

// snapshot возвращает копию элементов.
func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// isLoading — идёт загрузка текущего поколения.
func (c *collection[T]) isLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading && c.loadingGen == c.gen
}

func (c *collection[T]) lastErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// remoteMessage — сообщение сервера или fallback.
func remoteMessage(err error, fallback string) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
