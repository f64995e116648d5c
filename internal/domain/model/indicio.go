package model

import "time"

// Indicio — вещественное доказательство, прикреплённое к expediente.
// Существует, пока существует родительское дело; изменяется только
// пока родитель в StateDrafting.
type Indicio struct {
	ID           int64   `json:"IdIndicio"`
	ExpedienteID int64   `json:"IdExpediente"`
	Description  string  `json:"Description"`
	Color        *string `json:"Color,omitempty"`
	Size         *string `json:"Size,omitempty"`
	Weight       *string `json:"Weight,omitempty"`
	// Location — место хранения (обязательное)
	Location       string    `json:"Location"`
	TechnicianID   int64     `json:"IdTecnicoRegistro"`
	TechnicianName string    `json:"TecnicoRegistro,omitempty"`
	CreatedAt      time.Time `json:"CreatedAt"`
	UpdatedAt      time.Time `json:"UpdatedAt"`
}

// CreateIndicioInput — тело POST /indicios.
type CreateIndicioInput struct {
	ExpedienteID int64   `json:"IdExpediente"`
	Description  string  `json:"Description"`
	Color        *string `json:"Color,omitempty"`
	Size         *string `json:"Size,omitempty"`
	Weight       *string `json:"Weight,omitempty"`
	Location     string  `json:"Location"`
	TechnicianID int64   `json:"IdTecnicoRegistro"`
}

// UpdateIndicioInput — тело PUT /indicios/{id}.
type UpdateIndicioInput struct {
	Description string  `json:"Description"`
	Color       *string `json:"Color,omitempty"`
	Size        *string `json:"Size,omitempty"`
	Weight      *string `json:"Weight,omitempty"`
	Location    string  `json:"Location"`
}
