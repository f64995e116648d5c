// Пакет session — слот сохранённой сессии консоли.
// Actor хранится в одном именованном слоте локального хранилища:
// наличие слота при старте восстанавливает сессию без повторного входа,
// отсутствие означает, что пользователь не вошёл.
package session

import (
	"context"
	"sync"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// SlotKey — фиксированный ключ слота сессии.
const SlotKey = "dicri.session.user"

// Store — хранилище слота сессии.
type Store interface {
	// Load возвращает сохранённого Actor или nil, nil если слот пуст.
	Load(ctx context.Context) (*model.Actor, error)
	// Save записывает Actor в слот.
	Save(ctx context.Context, actor *model.Actor) error
	// Clear очищает слот. Очистка пустого слота — не ошибка.
	Clear(ctx context.Context) error
}

// MemoryStore — Store в памяти процесса.
type MemoryStore struct {
	mu    sync.Mutex
	actor *model.Actor
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load реализует Store.
func (m *MemoryStore) Load(_ context.Context) (*model.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.actor == nil {
		return nil, nil
	}
	a := *m.actor
	return &a, nil
}

// Save реализует Store.
func (m *MemoryStore) Save(_ context.Context, actor *model.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := *actor
	m.actor = &a
	return nil
}

// Clear реализует Store.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actor = nil
	return nil
}
