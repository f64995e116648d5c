// Пакет notify — лента кратковременных уведомлений консоли.
// Каждое действие сообщает об успехе или ошибке ровно одним уведомлением.
// Уведомления живут ограниченное время (DC_NOTIFICATION_TTL) и забираются через Drain.
package notify

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Level — вид уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dc_notifications_total",
	Help: "Общее количество уведомлений консоли.",
}, []string{"level"})

// Notification — одно уведомление.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier — приёмник уведомлений.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Feed — лента уведомлений поверх expirable LRU.
// При переполнении вытесняются самые старые.
type Feed struct {
	mu     sync.Mutex
	items  *expirable.LRU[string, Notification]
	logger *slog.Logger
}

// NewFeed создаёт ленту на size уведомлений со временем жизни ttl.
func NewFeed(size int, ttl time.Duration, logger *slog.Logger) *Feed {
	return &Feed{
		items:  expirable.NewLRU[string, Notification](size, nil, ttl),
		logger: logger.With(slog.String("component", "notify")),
	}
}

// Success добавляет уведомление об успехе.
func (f *Feed) Success(message string) {
	f.Push(LevelSuccess, message)
}

// Error добавляет уведомление об ошибке.
func (f *Feed) Error(message string) {
	f.Push(LevelError, message)
}

// Push добавляет уведомление и возвращает его.
func (f *Feed) Push(level Level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	f.mu.Lock()
	f.items.Add(n.ID, n)
	f.mu.Unlock()

	notificationsTotal.WithLabelValues(string(level)).Inc()
	f.logger.Debug("Уведомление",
		slog.String("level", string(level)),
		slog.String("message", message),
	)
	return n
}

// Peek возвращает живые уведомления, от старых к новым, не удаляя их.
func (f *Feed) Peek() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Drain возвращает живые уведомления, от старых к новым, и удаляет их.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.snapshot()
	f.items.Purge()
	return out
}

// Len возвращает число живых уведомлений.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items.Len()
}

func (f *Feed) snapshot() []Notification {
	out := f.items.Values()
	// Values упорядочены по последнему доступу; порядок ленты — по времени создания
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
