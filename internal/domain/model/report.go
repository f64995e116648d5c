package model

import "time"

// ReportFilters — фильтры отчётов (query-параметры /reportes/*).
type ReportFilters struct {
	From  string
	To    string
	State State
}

// ExpedienteReportRow — строка отчёта GET /reportes/expedientes.
type ExpedienteReportRow struct {
	ID              int64      `json:"IdExpediente"`
	FileNumber      string     `json:"FileNumber"`
	Description     string     `json:"Description"`
	StateName       string     `json:"StateName"`
	TechnicianName  string     `json:"TecnicoRegistro"`
	CoordinatorName string     `json:"CoordinadorRevision,omitempty"`
	CreatedAt       time.Time  `json:"CreatedAt"`
	ReviewDate      *time.Time `json:"ReviewDate,omitempty"`
}

// StateStatistic — количество дел в одном состоянии.
type StateStatistic struct {
	StateName string `json:"StateName"`
	Count     int    `json:"Cantidad"`
	Percent   int    `json:"Porcentaje"`
}

// StatisticsTotals — общие итоги.
type StatisticsTotals struct {
	TotalExpedientes int `json:"TotalExpedientes"`
	TotalIndicios    int `json:"TotalIndicios"`
	TotalActiveUsers int `json:"TotalUsuariosActivos"`
}

// Statistics — ответ GET /reportes/estadisticas.
type Statistics struct {
	ByState []StateStatistic `json:"estadisticasPorEstado"`
	Totals  StatisticsTotals `json:"totales"`
}

// TechnicianReportRow — строка отчёта по техническим специалистам.
type TechnicianReportRow struct {
	UserID           int64  `json:"IdUsuario"`
	FullName         string `json:"FullName"`
	TotalExpedientes int    `json:"TotalExpedientes"`
	TotalIndicios    int    `json:"TotalIndicios"`
	Approved         int    `json:"ExpedientesAprobados"`
	Rejected         int    `json:"ExpedientesRechazados"`
}

// CoordinatorReportRow — строка отчёта по координаторам.
type CoordinatorReportRow struct {
	UserID       int64  `json:"IdUsuario"`
	FullName     string `json:"FullName"`
	TotalReviews int    `json:"TotalRevisiones"`
	Approved     int    `json:"TotalAprobados"`
	Rejected     int    `json:"TotalRechazados"`
}
