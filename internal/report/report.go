// Пакет report — сводка на главной странице и отчёты для координаторов.
// Сводка считается по локальному зеркалу дел; отчёты запрашиваются
// у удалённого API и доступны только с правом view_reports.
package report

import (
	"context"
	"log/slog"
	"math"

	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/domain/rbac"
	"github.com/bigkaa/dicri-console/internal/domain/validate"
)

// ActorSource — источник текущего пользователя.
type ActorSource interface {
	Current() *model.Actor
}

// ExpedienteSource — зеркало дел (mirror.Expedientes).
type ExpedienteSource interface {
	Items() []model.Expediente
}

// ReportAPI — отчёты удалённого API (apiclient.Client).
type ReportAPI interface {
	ExpedientesReport(ctx context.Context, f model.ReportFilters) ([]model.ExpedienteReportRow, error)
	Statistics(ctx context.Context, f model.ReportFilters) (*model.Statistics, error)
	TechniciansReport(ctx context.Context) ([]model.TechnicianReportRow, error)
	CoordinatorsReport(ctx context.Context) ([]model.CoordinatorReportRow, error)
}

// Service — сводка и отчёты.
type Service struct {
	actors ActorSource
	exps   ExpedienteSource
	api    ReportAPI
	logger *slog.Logger
}

// New создаёт сервис отчётов.
func New(actors ActorSource, exps ExpedienteSource, api ReportAPI, logger *slog.Logger) *Service {
	return &Service{
		actors: actors,
		exps:   exps,
		api:    api,
		logger: logger.With(slog.String("component", "reports")),
	}
}

// Dashboard считает дела текущего пользователя по состояниям.
// Технический специалист — зарегистрированные им, координатор —
// назначенные ему (свободные дела в сводку не входят).
// Процент округляется до целого; состояния без дел не включаются.
func (s *Service) Dashboard(_ context.Context) (*model.Statistics, error) {
	actor := s.actors.Current()
	if actor == nil {
		return nil, fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}

	counts := make(map[model.State]int)
	total := 0
	for _, e := range s.exps.Items() {
		if !countsFor(actor, &e) {
			continue
		}
		counts[e.State]++
		total++
	}

	stats := &model.Statistics{
		ByState: make([]model.StateStatistic, 0, len(counts)),
		Totals:  model.StatisticsTotals{TotalExpedientes: total},
	}
	for _, st := range model.AllStates() {
		n := counts[st]
		if n == 0 {
			continue
		}
		stats.ByState = append(stats.ByState, model.StateStatistic{
			StateName: st.String(),
			Count:     n,
			Percent:   percent(n, total),
		})
	}
	return stats, nil
}

// Expedientes — отчёт по делам с фильтрами.
func (s *Service) Expedientes(ctx context.Context, f model.ReportFilters) ([]model.ExpedienteReportRow, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	if err := validate.ReportFilters(f); err != nil {
		return nil, err
	}
	rows, err := s.api.ExpedientesReport(ctx, f)
	if err != nil {
		return nil, s.remote("expedientes", err)
	}
	return rows, nil
}

// Statistics — общая статистика за период.
func (s *Service) Statistics(ctx context.Context, f model.ReportFilters) (*model.Statistics, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	if err := validate.ReportFilters(f); err != nil {
		return nil, err
	}
	stats, err := s.api.Statistics(ctx, f)
	if err != nil {
		return nil, s.remote("statistics", err)
	}
	return stats, nil
}

// Technicians — отчёт по техническим специалистам.
func (s *Service) Technicians(ctx context.Context) ([]model.TechnicianReportRow, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	rows, err := s.api.TechniciansReport(ctx)
	if err != nil {
		return nil, s.remote("technicians", err)
	}
	return rows, nil
}

// Coordinators — отчёт по координаторам.
func (s *Service) Coordinators(ctx context.Context) ([]model.CoordinatorReportRow, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	rows, err := s.api.CoordinatorsReport(ctx)
	if err != nil {
		return nil, s.remote("coordinators", err)
	}
	return rows, nil
}

// authorize проверяет право view_reports без обращения к API.
func (s *Service) authorize() error {
	actor := s.actors.Current()
	if actor == nil {
		return fault.New(fault.KindUnauthenticated, "требуется вход в систему")
	}
	role, ok := rbac.RoleFromCode(actor.RoleCode)
	if !ok || !rbac.HasPermission(role, rbac.PermViewReports) {
		return fault.New(fault.KindPermissionDenied, "недостаточно прав для просмотра отчётов")
	}
	return nil
}

func (s *Service) remote(report string, err error) error {
	s.logger.Warn("Ошибка загрузки отчёта",
		slog.String("report", report),
		slog.String("error", err.Error()),
	)
	msg := apiclient.ServerMessage(err)
	if msg == "" {
		msg = "ошибка загрузки отчёта"
	}
	return fault.Wrap(fault.KindRemote, msg, err)
}

func countsFor(actor *model.Actor, e *model.Expediente) bool {
	switch rbac.Role(actor.RoleCode) {
	case rbac.RoleTechnician:
		return e.TechnicianID == actor.ID
	case rbac.RoleCoordinator:
		return e.AssignedTo(actor.ID)
	default:
		return false
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
