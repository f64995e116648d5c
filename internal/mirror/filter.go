package mirror

import (
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
)

// FilterExpedientes оставляет дела, видимые actor:
//   - технический специалист — зарегистрированные им
//   - координатор — назначенные ему и свободные дела на проверке
//   - остальные — ничего
func FilterExpedientes(actor *model.Actor, items []model.Expediente) []model.Expediente {
	if actor == nil {
		return nil
	}
	out := make([]model.Expediente, 0, len(items))
	for i := range items {
		if ExpedienteVisible(actor, &items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// ExpedienteVisible проверяет видимость одного дела.
func ExpedienteVisible(actor *model.Actor, e *model.Expediente) bool {
	if actor == nil {
		return false
	}
	switch rbac.Role(actor.RoleCode) {
	case rbac.RoleTechnician:
		return e.TechnicianID == actor.ID
	case rbac.RoleCoordinator:
		return e.AssignedTo(actor.ID) || e.Unclaimed()
	default:
		return false
	}
}

// FilterIndicios оставляет индиции, видимые actor.
// Видимость родительского дела проверяется через зеркало дел.
//   - технический специалист — зарегистрированные им
//   - координатор — все индиции дела
//   - остальные — ничего
func FilterIndicios(actor *model.Actor, items []model.Indicio) []model.Indicio {
	if actor == nil {
		return nil
	}
	role := rbac.Role(actor.RoleCode)
	out := make([]model.Indicio, 0, len(items))
	for _, it := range items {
		switch role {
		case rbac.RoleTechnician:
			if it.TechnicianID == actor.ID {
				out = append(out, it)
			}
		case rbac.RoleCoordinator:
			out = append(out, it)
		}
	}
	return out
}
