package fakeapi

import "github.com/bigkaa/dicri-console/internal/domain/model"

// Password — пароль всех пользователей из SeedUsers.
const Password = "secret"

// Users — стандартный набор пользователей для тестов.
type Users struct {
	Technician   model.Usuario
	Technician2  model.Usuario
	Coordinator  model.Usuario
	Coordinator2 model.Usuario
	// Admin — пользователь с кодом роли вне закрытого набора
	Admin model.Usuario
	// Inactive — неактивный координатор
	Inactive model.Usuario
}

// SeedUsers добавляет стандартный набор пользователей.
func (s *Server) SeedUsers() Users {
	return Users{
		Technician:   s.AddUser(model.Usuario{ID: 10, Username: "tecnico", FullName: "Ana Técnico", RoleCode: 1, IsActive: true}, Password),
		Technician2:  s.AddUser(model.Usuario{ID: 11, Username: "tecnico2", FullName: "Luis Técnico", RoleCode: 1, IsActive: true}, Password),
		Coordinator:  s.AddUser(model.Usuario{ID: 20, Username: "coord", FullName: "Carla Coordinadora", RoleCode: 2, IsActive: true}, Password),
		Coordinator2: s.AddUser(model.Usuario{ID: 21, Username: "coord2", FullName: "Mario Coordinador", RoleCode: 2, IsActive: true}, Password),
		Admin:        s.AddUser(model.Usuario{ID: 30, Username: "admin", FullName: "Admin", RoleCode: 3, IsActive: true}, Password),
		Inactive:     s.AddUser(model.Usuario{ID: 22, Username: "coord3", FullName: "Inactivo", RoleCode: 2, IsActive: false}, Password),
	}
}

// Actor возвращает Actor для пользователя.
func Actor(u model.Usuario) *model.Actor {
	a := model.ActorFromUsuario(u)
	return &a
}
