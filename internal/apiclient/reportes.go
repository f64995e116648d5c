package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// ExpedientesReport запрашивает отчёт по делам.
// GET /reportes/expedientes?fechaInicio&fechaFin&estado
func (c *Client) ExpedientesReport(ctx context.Context, f model.ReportFilters) ([]model.ExpedienteReportRow, error) {
	var rows []model.ExpedienteReportRow
	path := "/reportes/expedientes" + reportQuery(f, true)
	if err := c.do(ctx, "ExpedientesReport", http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Statistics запрашивает общую статистику.
// GET /reportes/estadisticas?fechaInicio&fechaFin
func (c *Client) Statistics(ctx context.Context, f model.ReportFilters) (*model.Statistics, error) {
	var stats model.Statistics
	path := "/reportes/estadisticas" + reportQuery(f, false)
	if err := c.do(ctx, "Statistics", http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TechniciansReport запрашивает отчёт по техническим специалистам.
// GET /reportes/tecnicos
func (c *Client) TechniciansReport(ctx context.Context) ([]model.TechnicianReportRow, error) {
	var rows []model.TechnicianReportRow
	if err := c.do(ctx, "TechniciansReport", http.MethodGet, "/reportes/tecnicos", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CoordinatorsReport запрашивает отчёт по координаторам.
// GET /reportes/coordinadores
func (c *Client) CoordinatorsReport(ctx context.Context) ([]model.CoordinatorReportRow, error) {
	var rows []model.CoordinatorReportRow
	if err := c.do(ctx, "CoordinatorsReport", http.MethodGet, "/reportes/coordinadores", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// reportQuery формирует query-строку фильтров. Пустые фильтры не передаются.
func reportQuery(f model.ReportFilters, withState bool) string {
	params := url.Values{}
	if f.From != "" {
		params.Set("fechaInicio", f.From)
	}
	if f.To != "" {
		params.Set("fechaFin", f.To)
	}
	if withState && f.State != 0 {
		params.Set("estado", strconv.Itoa(int(f.State)))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
