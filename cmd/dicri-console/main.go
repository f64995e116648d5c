// Точка входа DICRI Console — локального шлюза рабочей станции.
// Загружает конфигурацию, открывает слот сессии, собирает контекст
// пользователя, зеркала дел и индиций, действия и отчёты,
// запускает мониторинг удалённого API и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/dicri-console/internal/action"
	"github.com/bigkaa/dicri-console/internal/api/handlers"
	"github.com/bigkaa/dicri-console/internal/api/middleware"
	"github.com/bigkaa/dicri-console/internal/apiclient"
	"github.com/bigkaa/dicri-console/internal/config"
	"github.com/bigkaa/dicri-console/internal/directory"
	"github.com/bigkaa/dicri-console/internal/domain/model"
	"github.com/bigkaa/dicri-console/internal/identity"
	"github.com/bigkaa/dicri-console/internal/mirror"
	"github.com/bigkaa/dicri-console/internal/notify"
	"github.com/bigkaa/dicri-console/internal/report"
	"github.com/bigkaa/dicri-console/internal/server"
	"github.com/bigkaa/dicri-console/internal/service"
	"github.com/bigkaa/dicri-console/internal/session"
)

// notificationFeedSize — сколько уведомлений хранит лента.
const notificationFeedSize = 100

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("DICRI Console запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	if os.Getenv("DC_DEPHEALTH_GROUP") == "" {
		logger.Warn("DC_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx := context.Background()

	// 3. Клиент удалённого DICRI API
	client, err := apiclient.New(cfg.APIURL, cfg.APICACertPath, cfg.APITimeout, cfg.APIHealthPath, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Слот сессии (SQLite, AES-GCM)
	sealer, err := session.NewSealer(cfg.SessionSecret)
	if err != nil {
		logger.Error("Ошибка создания шифра сессии", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("DC_SESSION_SECRET не задан, сессия не сохраняется между рестартами")
	}
	store, err := session.OpenSQLite(cfg.SessionDBPath, sealer, logger)
	if err != nil {
		logger.Error("Ошибка открытия слота сессии",
			slog.String("path", cfg.SessionDBPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer store.Close()

	// 5. Контекст пользователя, лента уведомлений, зеркала
	feed := notify.NewFeed(notificationFeedSize, cfg.NotificationTTL, logger)
	ic := identity.New(client, store, logger)
	exps := mirror.NewExpedientes(client, ic, feed, cfg.DetailCacheSize, cfg.DetailCacheTTL, logger)
	inds := mirror.NewIndicios(client, ic, feed, logger)
	dir := directory.New(client, cfg.DirectoryCacheTTL, logger)

	ic.Subscribe(exps.OnIdentityChange)
	ic.Subscribe(inds.OnIdentityChange)
	ic.Subscribe(func(_ context.Context, actor *model.Actor) {
		if actor == nil {
			dir.Invalidate()
		}
	})

	// 6. Восстановление сессии (повреждённый слот игнорируется хранилищем)
	if err := ic.Init(ctx); err != nil {
		logger.Warn("Сессия не восстановлена", slog.String("error", err.Error()))
	}

	// 7. Действия и отчёты
	orch := action.New(ic, exps, inds, dir, feed, logger)
	reports := report.New(ic, exps, client, logger)

	// 8. topologymetrics — мониторинг удалённого API
	var dephealthSvc *service.DephealthService
	if cfg.DephealthEnabled {
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			"dicri-console",
			cfg.DephealthGroup,
			cfg.APIURL,
			cfg.APIHealthPath,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	} else {
		logger.Info("topologymetrics отключён (DC_DEPHEALTH_ENABLED=false)")
	}

	// 9. API handler и HTTP-сервер
	apiHandler := handlers.NewAPIHandler(
		handlers.NewHealthHandler(store, client),
		ic,
		exps,
		inds,
		orch,
		dir,
		reports,
		feed,
		logger,
	)

	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger, ic),
	)
	runErr := srv.Run()

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		_ = store.Close()
		os.Exit(1)
	}

	logger.Info("DICRI Console остановлена")
}
