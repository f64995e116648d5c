package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// csvDateLayout — формат дат в выгрузке (dd/MM/yyyy).
const csvDateLayout = "02/01/2006"

// Table — отчёт в виде таблицы для выгрузки в CSV.
type Table struct {
	// Filename — имя файла для Content-Disposition
	Filename string
	Header   []string
	Rows     [][]string
}

// WriteCSV записывает таблицу в w.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("запись заголовка CSV: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("запись строк CSV: %w", err)
	}
	return nil
}

// ExpedientesTable — выгрузка отчёта по делам. Дело без координатора — N/A.
func ExpedientesTable(rows []model.ExpedienteReportRow) Table {
	t := Table{
		Filename: "reporte_expedientes.csv",
		Header:   []string{"Expediente", "Descripción", "Estado", "Técnico", "Coordinador", "Fecha Creación"},
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		coordinator := r.CoordinatorName
		if coordinator == "" {
			coordinator = "N/A"
		}
		t.Rows = append(t.Rows, []string{
			r.FileNumber,
			r.Description,
			r.StateName,
			r.TechnicianName,
			coordinator,
			r.CreatedAt.Format(csvDateLayout),
		})
	}
	return t
}

// StatisticsTable — выгрузка статистики по состояниям.
func StatisticsTable(stats *model.Statistics) Table {
	t := Table{
		Filename: "estadisticas.csv",
		Header:   []string{"Estado", "Cantidad", "Porcentaje"},
	}
	if stats == nil {
		return t
	}
	t.Rows = make([][]string, 0, len(stats.ByState))
	for _, s := range stats.ByState {
		t.Rows = append(t.Rows, []string{
			s.StateName,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Percent) + "%",
		})
	}
	return t
}

// TechniciansTable — выгрузка отчёта по техническим специалистам.
func TechniciansTable(rows []model.TechnicianReportRow) Table {
	t := Table{
		Filename: "reporte_tecnicos.csv",
		Header:   []string{"Técnico", "Total Expedientes", "Total Indicios", "Aprobados", "Rechazados"},
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.FullName,
			strconv.Itoa(r.TotalExpedientes),
			strconv.Itoa(r.TotalIndicios),
			strconv.Itoa(r.Approved),
			strconv.Itoa(r.Rejected),
		})
	}
	return t
}

// CoordinatorsTable — выгрузка отчёта по координаторам.
func CoordinatorsTable(rows []model.CoordinatorReportRow) Table {
	t := Table{
		Filename: "reporte_coordinadores.csv",
		Header:   []string{"Coordinador", "Total Revisiones", "Aprobados", "Rechazados"},
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.FullName,
			strconv.Itoa(r.TotalReviews),
			strconv.Itoa(r.Approved),
			strconv.Itoa(r.Rejected),
		})
	}
	return t
}
