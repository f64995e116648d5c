package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/dicri-console/internal/api/errors"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/report"
)

// Форматы выгрузки отчётов (?format=).
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

type rowsResponse[T any] struct {
	Items []T `json:"items"`
}

// GetDashboard — GET /api/v1/dashboard. Считается по зеркалу дел.
func (h *APIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Dashboard(r.Context())
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExpedientesReport — GET /api/v1/reports/expedientes?fechaInicio=&fechaFin=&estado=&format=.
func (h *APIHandler) ExpedientesReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	f, ok := reportFilters(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.Expedientes(r.Context(), f)
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	if format == formatCSV {
		h.writeTable(w, report.ExpedientesTable(rows))
		return
	}
	writeRows(w, rows)
}

// StatisticsReport — GET /api/v1/reports/statistics?fechaInicio=&fechaFin=&format=.
func (h *APIHandler) StatisticsReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	f, ok := reportFilters(w, r)
	if !ok {
		return
	}
	stats, err := h.reports.Statistics(r.Context(), f)
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	if format == formatCSV {
		h.writeTable(w, report.StatisticsTable(stats))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TechniciansReport — GET /api/v1/reports/technicians?format=.
func (h *APIHandler) TechniciansReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.Technicians(r.Context())
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	if format == formatCSV {
		h.writeTable(w, report.TechniciansTable(rows))
		return
	}
	writeRows(w, rows)
}

// CoordinatorsReport — GET /api/v1/reports/coordinators?format=.
func (h *APIHandler) CoordinatorsReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.Coordinators(r.Context())
	if err != nil {
		apierrors.WriteFault(w, err)
		return
	}
	if format == formatCSV {
		h.writeTable(w, report.CoordinatorsTable(rows))
		return
	}
	writeRows(w, rows)
}

// writeTable отдаёт отчёт файлом CSV.
func (h *APIHandler) writeTable(w http.ResponseWriter, t report.Table) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Filename))
	w.WriteHeader(http.StatusOK)
	if err := t.WriteCSV(w); err != nil {
		h.logger.Warn("Ошибка выгрузки CSV",
			slog.String("file", t.Filename),
			slog.String("error", err.Error()),
		)
	}
}

// reportFormat читает ?format=: json (по умолчанию) или csv.
func reportFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	switch format := r.URL.Query().Get("format"); format {
	case "", formatJSON:
		return formatJSON, true
	case formatCSV:
		return formatCSV, true
	default:
		apierrors.BadRequest(w, fmt.Sprintf("Неизвестный формат отчёта: %q", format))
		return "", false
	}
}

func writeRows[T any](w http.ResponseWriter, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, rowsResponse[T]{Items: rows})
}

// reportFilters читает фильтры из query. Даты проверяет report.Service.
func reportFilters(w http.ResponseWriter, r *http.Request) (model.ReportFilters, bool) {
	q := r.URL.Query()
	f := model.ReportFilters{
		From: q.Get("fechaInicio"),
		To:   q.Get("fechaFin"),
	}
	if raw := q.Get("estado"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(w, "Параметр estado должен быть числом")
			return f, false
		}
		f.State = model.State(n)
	}
	return f, true
}
