// Пакет directory — справочник пользователей для выбора координатора.
// Список GET /usuarios кэшируется в expirable LRU и фильтруется по коду роли
// на стороне консоли.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
)

// Prometheus-метрики справочника.
var (
	directoryHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dc_directory_cache_hits_total",
		Help: "Общее количество попаданий в кэш справочника пользователей.",
	})
	directoryMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dc_directory_cache_misses_total",
		Help: "Общее количество промахов кэша справочника пользователей.",
	})
)

// cacheKey — единственный ключ кэша: список хранится целиком.
const cacheKey = "usuarios"

// UserLister — источник списка пользователей (apiclient.Client).
type UserLister interface {
	ListUsuarios(ctx context.Context) ([]model.Usuario, error)
}

// Directory — справочник пользователей.
type Directory struct {
	users  UserLister
	cache  *expirable.LRU[string, []model.Usuario]
	logger *slog.Logger
}

// New создаёт справочник. ttl — время жизни закэшированного списка.
func New(users UserLister, ttl time.Duration, logger *slog.Logger) *Directory {
	return &Directory{
		users:  users,
		cache:  expirable.NewLRU[string, []model.Usuario](1, nil, ttl),
		logger: logger.With(slog.String("component", "directory")),
	}
}

// Coordinators возвращает пользователей с ролью координатора.
func (d *Directory) Coordinators(ctx context.Context) ([]model.Usuario, error) {
	return d.byRole(ctx, rbac.RoleCoordinator)
}

// Technicians возвращает пользователей с ролью технического специалиста.
func (d *Directory) Technicians(ctx context.Context) ([]model.Usuario, error) {
	return d.byRole(ctx, rbac.RoleTechnician)
}

// IsCoordinator проверяет, что id принадлежит активному координатору.
func (d *Directory) IsCoordinator(ctx context.Context, id int64) (bool, error) {
	coords, err := d.Coordinators(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range coords {
		if u.ID == id {
			return u.IsActive, nil
		}
	}
	return false, nil
}

// PickerCoordinators — активные координаторы для выбора при отправке.
// Ошибка загрузки только логируется, возвращается пустой список.
func (d *Directory) PickerCoordinators(ctx context.Context) []model.Usuario {
	coords, err := d.Coordinators(ctx)
	if err != nil {
		d.logger.Warn("Ошибка загрузки координаторов",
			slog.String("error", err.Error()),
		)
		return []model.Usuario{}
	}
	out := make([]model.Usuario, 0, len(coords))
	for _, u := range coords {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out
}

// Invalidate сбрасывает кэш.
func (d *Directory) Invalidate() {
	d.cache.Purge()
}

func (d *Directory) byRole(ctx context.Context, role rbac.Role) ([]model.Usuario, error) {
	all, err := d.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Usuario, 0, len(all))
	for _, u := range all {
		if rbac.Role(u.RoleCode) == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *Directory) all(ctx context.Context) ([]model.Usuario, error) {
	if users, ok := d.cache.Get(cacheKey); ok {
		directoryHitsTotal.Inc()
		return users, nil
	}
	directoryMissesTotal.Inc()

	users, err := d.users.ListUsuarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("загрузка пользователей: %w", err)
	}
	d.cache.Add(cacheKey, users)
	return users, nil
}
