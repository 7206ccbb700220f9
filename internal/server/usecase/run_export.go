package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"campfire-export/internal/adapters/campfire"
	"campfire-export/internal/adapters/sink"
	"campfire-export/internal/cache"
	"campfire-export/internal/core/services"
	"campfire-export/internal/domain"
	applog "campfire-export/internal/log"
	"campfire-export/internal/pkg/config"
)

// RunExportUseCase инкапсулирует бизнес-логику одного запуска экспорта:
// сборку клиента, определение часового пояса, список комнат и обход.
type RunExportUseCase struct {
	cfg *config.Config
	log *slog.Logger

	// accountURL строит базовый URL API по поддомену.
	accountURL func(subdomain string) string
}

// NewRunExportUseCase создает новый экземпляр RunExportUseCase.
func NewRunExportUseCase(cfg *config.Config, log *slog.Logger) *RunExportUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &RunExportUseCase{cfg: cfg, log: log, accountURL: campfire.AccountURL}
}

// SetAccountURL подменяет построение базового URL API. Используется
// тестами для направления экспорта на локальный сервер.
func (uc *RunExportUseCase) SetAccountURL(fn func(subdomain string) string) {
	if fn != nil {
		uc.accountURL = fn
	}
}

// RunExport выполняет полный экспорт аккаунта. Кеш пользователей
// собирается заново на каждый запуск: имена могли измениться между
// задачами, а стоимость прогрева — один запрос на пользователя.
func (uc *RunExportUseCase) RunExport(ctx context.Context, subdomain, token string, start, end time.Time) (*domain.ExportSummary, error) {
	if err := os.MkdirAll(uc.cfg.Export.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать корневой каталог экспорта: %w", err)
	}

	dirSink, err := sink.NewDirSink(uc.cfg.Export.RootDir)
	if err != nil {
		return nil, fmt.Errorf("не удалось подготовить каталог экспорта: %w", err)
	}

	// Ошибки этой задачи дописываются в общий журнал в корне экспорта.
	jobLog := slog.New(applog.NewErrorFileHandler(uc.log.Handler(), uc.cfg.Export.RootDir)).
		With("subdomain", subdomain)

	client := campfire.NewClient(uc.accountURL(subdomain), token)
	accounts := services.NewAccountService(client, jobLog)

	loc, err := accounts.FindTimezone(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить часовой пояс аккаунта: %w", err)
	}

	rooms, err := accounts.Rooms(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить список комнат: %w", err)
	}
	jobLog.Info("starting export", "rooms", len(rooms), "timezone", loc.String())

	users := cache.NewUserCache(client, jobLog)
	engine := services.NewExportService(client, users, dirSink, subdomain, loc,
		services.WithRateInterval(uc.cfg.RateInterval()),
		services.WithLogger(jobLog),
	)

	summary := engine.ExportAccount(ctx, rooms, start, end)
	jobLog.Info("export finished",
		"rooms", len(summary.Rooms),
		"errors", summary.TotalErrors(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
	return summary, nil
}
