// Пакет rbac — роли DICRI и их права.
// Набор ролей закрыт: технический специалист и координатор.
// Любой другой код роли не даёт ни одного права.
package rbac

import "fmt"

// Role — роль пользователя. Значения совпадают с IdRol удалённого API.
type Role int

const (
	// RoleTechnician — технический специалист: регистрирует дела и индиции
	RoleTechnician Role = 1
	// RoleCoordinator — координатор: проверяет дела, смотрит отчёты
	RoleCoordinator Role = 2
)

// Permission — тег права.
type Permission string

const (
	PermCreateExpediente Permission = "create_expediente"
	PermEditExpediente   Permission = "edit_expediente"
	PermCreateIndicio    Permission = "create_indicio"
	PermReviewExpediente Permission = "review_expediente"
	PermViewReports      Permission = "view_reports"
)

// AllRoles возвращает все роли закрытого набора.
func AllRoles() []Role {
	return []Role{RoleTechnician, RoleCoordinator}
}

// RoleFromCode преобразует код роли API в Role.
// Второе значение false для кода вне закрытого набора.
func RoleFromCode(code int) (Role, bool) {
	r := Role(code)
	return r, r.Valid()
}

// Valid проверяет принадлежность роли закрытому набору.
func (r Role) Valid() bool {
	switch r {
	case RoleTechnician, RoleCoordinator:
		return true
	default:
		return false
	}
}

// String возвращает имя роли.
func (r Role) String() string {
	switch r {
	case RoleTechnician:
		return "technician"
	case RoleCoordinator:
		return "coordinator"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Permissions возвращает набор прав роли.
// Для роли вне закрытого набора — пустой набор.
func Permissions(r Role) []Permission {
	switch r {
	case RoleTechnician:
		return []Permission{PermCreateExpediente, PermEditExpediente, PermCreateIndicio}
	case RoleCoordinator:
		return []Permission{PermReviewExpediente, PermViewReports}
	default:
		return nil
	}
}

// HasPermission проверяет, входит ли право в набор роли.
func HasPermission(r Role, p Permission) bool {
	for _, granted := range Permissions(r) {
		if granted == p {
			return true
		}
	}
	return false
}

// IsValidPermission проверяет, является ли строка известным тегом права.
func IsValidPermission(p Permission) bool {
	for _, r := range AllRoles() {
		if HasPermission(r, p) {
			return true
		}
	}
	return false
}
