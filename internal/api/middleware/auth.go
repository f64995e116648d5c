// auth.go — проверка текущего пользователя консоли.
// Консоль обслуживает одного пользователя: middleware берёт Actor из
// identity.Context и кладёт копию в контекст запроса.
package middleware

import (
	"context"
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyActor — текущий пользователь в контексте запроса.
const ContextKeyActor contextKey = "actor"

// ActorSource — источник текущего пользователя (identity.Context).
type ActorSource interface {
	Current() *model.Actor
}

// RequireActor возвращает middleware, отвечающий 401 без вошедшего пользователя.
func RequireActor(actors ActorSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actors.Current()
			if actor == nil {
				apierrors.Unauthenticated(w, "требуется вход в систему")
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission возвращает middleware, требующий право роли.
// Должен использоваться ПОСЛЕ RequireActor.
func RequirePermission(perm rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				apierrors.Unauthenticated(w, "требуется вход в систему")
				return
			}
			role, ok := rbac.RoleFromCode(actor.RoleCode)
			if !ok || !rbac.HasPermission(role, perm) {
				apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется %s", perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromContext извлекает Actor из контекста запроса.
// Возвращает nil, если пользователь не найден.
func ActorFromContext(ctx context.Context) *model.Actor {
	actor, _ := ctx.Value(ContextKeyActor).(*model.Actor)
	return actor
}
