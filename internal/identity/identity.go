// Пакет identity — контекст текущего пользователя консоли.
// Единственный источник ответа на вопросы «кто действует» и «что ему разрешено».
// Состояние меняется только в Login и Logout; остальные методы только читают.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
	"github.com/bigkaa/dicri-console/internal/domain/validate"
	"github.com/bigkaa/dicri-console/internal/session"
)

// loginFallbackMessage — сообщение, если сервер не прислал своего.
const loginFallbackMessage = "ошибка входа в систему"

// Authenticator — внешний сервис входа (POST /login).
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error)
}

// Listener получает нового Actor (nil после выхода).
type Listener func(ctx context.Context, actor *model.Actor)

// Context — контекст текущего пользователя.
// Создаётся один на процесс и передаётся потребителям явно.
type Context struct {
	auth   Authenticator
	store  session.Store
	logger *slog.Logger

	mu        sync.RWMutex
	actor     *model.Actor
	listeners []Listener
}

// New создаёт контекст пользователя. До Init пользователь не вошёл.
func New(auth Authenticator, store session.Store, logger *slog.Logger) *Context {
	return &Context{
		auth:   auth,
		store:  store,
		logger: logger.With(slog.String("component", "identity")),
	}
}

// Subscribe регистрирует слушателя смены пользователя.
// Слушатели вызываются синхронно после Init, Login и Logout.
func (c *Context) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Init восстанавливает сессию из слота.
// Пустой слот — пользователь не вошёл, это не ошибка.
func (c *Context) Init(ctx context.Context) error {
	actor, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("восстановление сессии: %w", err)
	}
	if actor == nil {
		c.logger.Info("Сохранённой сессии нет")
		return nil
	}

	c.mu.Lock()
	c.actor = actor
	c.mu.Unlock()

	c.logger.Info("Сессия восстановлена",
		slog.Int64("user_id", actor.ID),
		slog.String("username", actor.Username),
		slog.String("role", rbac.Role(actor.RoleCode).String()),
	)
	c.notify(ctx, actor)
	return nil
}

// Login выполняет вход: один запрос к сервису входа, без повторов.
// При отказе сервиса возвращает fault.KindAuth с сообщением сервера как есть.
// Пустые имя или пароль отклоняются до запроса с fault.KindValidation
// и ошибками по полям; сервис входа при этом не вызывается.
func (c *Context) Login(ctx context.Context, creds model.Credentials) (*model.Actor, error) {
	if err := validate.Login(creds); err != nil {
		return nil, err
	}

	resp, err := c.auth.Login(ctx, creds)
	if err != nil {
		msg := apiclient.ServerMessage(err)
		if msg == "" {
			msg = loginFallbackMessage
		}
		c.logger.Warn("Вход отклонён",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, fault.Wrap(fault.KindAuth, msg, err)
	}

	actor := model.ActorFromUsuario(resp.User)
	if err := c.store.Save(ctx, &actor); err != nil {
		return nil, fmt.Errorf("сохранение сессии: %w", err)
	}

	c.mu.Lock()
	c.actor = &actor
	c.mu.Unlock()

	c.logger.Info("Пользователь вошёл",
		slog.Int64("user_id", actor.ID),
		slog.String("username", actor.Username),
		slog.String("role", rbac.Role(actor.RoleCode).String()),
	)
	c.notify(ctx, &actor)

	out := actor
	return &out, nil
}

// Logout очищает слот и текущего пользователя. Повторный вызов ничего не делает.
func (c *Context) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("очистка сессии: %w", err)
	}

	c.mu.Lock()
	prev := c.actor
	c.actor = nil
	c.mu.Unlock()

	if prev == nil {
		return nil
	}

	c.logger.Info("Пользователь вышел", slog.Int64("user_id", prev.ID))
	c.notify(ctx, nil)
	return nil
}

// Current возвращает копию текущего пользователя или nil.
func (c *Context) Current() *model.Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.actor == nil {
		return nil
	}
	a := *c.actor
	return &a
}

// IsAuthenticated проверяет, вошёл ли пользователь.
func (c *Context) IsAuthenticated() bool {
	return c.Current() != nil
}

// IsTechnician — текущий пользователь технический специалист.
func (c *Context) IsTechnician() bool {
	role, ok := c.role()
	return ok && role == rbac.RoleTechnician
}

// IsCoordinator — текущий пользователь координатор.
func (c *Context) IsCoordinator() bool {
	role, ok := c.role()
	return ok && role == rbac.RoleCoordinator
}

// HasPermission проверяет право текущего пользователя.
// У не вошедшего пользователя прав нет.
func (c *Context) HasPermission(p rbac.Permission) bool {
	role, ok := c.role()
	return ok && rbac.HasPermission(role, p)
}

// Permissions возвращает права текущего пользователя.
func (c *Context) Permissions() []rbac.Permission {
	role, ok := c.role()
	if !ok {
		return nil
	}
	return rbac.Permissions(role)
}

func (c *Context) role() (rbac.Role, bool) {
	a := c.Current()
	if a == nil {
		return 0, false
	}
	return rbac.RoleFromCode(a.RoleCode)
}

func (c *Context) notify(ctx context.Context, actor *model.Actor) {
	c.mu.RLock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	for _, l := range listeners {
		if actor == nil {
			l(ctx, nil)
			continue
		}
		a := *actor
		l(ctx, &a)
	}
}
