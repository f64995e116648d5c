package model

import "time"

// Usuario — пользователь удалённого API (ответ /login и /usuarios).
type Usuario struct {
	ID        int64     `json:"IdUsuario"`
	Username  string    `json:"Username"`
	FullName  string    `json:"FullName"`
	RoleCode  int       `json:"IdRol"`
	RoleName  string    `json:"RoleName,omitempty"`
	IsActive  bool      `json:"IsActive"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
}

// Actor — текущий аутентифицированный пользователь консоли.
// Создаётся при успешном входе, хранится в слоте сессии до выхода.
// RoleCode хранится как есть: неизвестный код не даёт ни прав, ни видимости.
type Actor struct {
	ID          int64  `json:"IdUsuario"`
	Username    string `json:"Username"`
	DisplayName string `json:"FullName"`
	RoleCode    int    `json:"IdRol"`
}

// ActorFromUsuario формирует Actor из записи пользователя.
func ActorFromUsuario(u Usuario) Actor {
	return Actor{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.FullName,
		RoleCode:    u.RoleCode,
	}
}

// Credentials — учётные данные POST /login.
type Credentials struct {
	Username string `json:"Username"`
	Password string `json:"Password"` //nolint:gosec // G117: маппинг тела запроса
}

// LoginResponse — ответ POST /login.
type LoginResponse struct {
	Message string  `json:"message"`
	User    Usuario `json:"user"`
}
