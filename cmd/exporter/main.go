package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campfire-export/internal/adapters/exporter"
	"campfire-export/internal/domain"
	applog "campfire-export/internal/log"
	"campfire-export/internal/pkg/config"
	"campfire-export/internal/pkg/term"
	"campfire-export/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

// run выполняет один запуск экспорта из командной строки.
func run() error {
	var (
		configPath string
		subdomain  string
		token      string
		startDate  string
		endDate    string
		rootDir    string
		xlsxPath   string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "config.yml", "Path to config file")
	flag.StringVar(&subdomain, "subdomain", "", "Campfire account subdomain")
	flag.StringVar(&token, "token", "", "Campfire API token")
	flag.StringVar(&startDate, "start", "", "First day to export (YYYY-MM-DD, required)")
	flag.StringVar(&endDate, "end", "", "Last day to export (YYYY-MM-DD, required)")
	flag.StringVar(&rootDir, "root", "", "Export root directory")
	flag.StringVar(&xlsxPath, "xlsx", "", "Write run summary to this xlsx file")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Флаги переопределяют конфигурацию.
	if subdomain != "" {
		cfg.Campfire.Subdomain = subdomain
	}
	if token != "" {
		cfg.Campfire.APIToken = token
	}
	if startDate != "" {
		cfg.Export.StartDate = startDate
	}
	if endDate != "" {
		cfg.Export.EndDate = endDate
	}
	if rootDir != "" {
		cfg.Export.RootDir = rootDir
	}
	if xlsxPath != "" {
		cfg.Export.SummaryXLSX = xlsxPath
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	// Недостающие учетные данные запрашиваются интерактивно.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	terminal := term.NewTerminal()
	if cfg.Campfire.Subdomain == "" {
		if cfg.Campfire.Subdomain, err = terminal.Subdomain(ctx); err != nil {
			return err
		}
	}
	if cfg.Campfire.APIToken == "" {
		if cfg.Campfire.APIToken, err = terminal.APIToken(ctx); err != nil {
			return err
		}
	}

	if err := cfg.ValidateExport(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	start, err := cfg.StartTime()
	if err != nil {
		return err
	}
	end, err := cfg.EndTime()
	if err != nil {
		return err
	}

	uc := usecase.NewRunExportUseCase(cfg, logger)
	summary, err := uc.RunExport(ctx, cfg.Campfire.Subdomain, cfg.Campfire.APIToken, start, end)
	if err != nil {
		return err
	}

	printSummary(summary)

	if cfg.Export.SummaryXLSX != "" {
		if err := exporter.NewExcelExporter().Export(summary, cfg.Export.SummaryXLSX); err != nil {
			return fmt.Errorf("failed to write summary workbook: %w", err)
		}
		fmt.Printf("Summary workbook written to %s\n", cfg.Export.SummaryXLSX)
	}

	if summary.TotalErrors() > 0 {
		fmt.Printf("Completed with %d errors, see %s\n",
			summary.TotalErrors(), applog.ErrorFileName)
	}
	return nil
}

// printSummary выводит итоги запуска по комнатам.
func printSummary(summary *domain.ExportSummary) {
	fmt.Printf("--- Export of %s ---\n", summary.Subdomain)
	for _, rs := range summary.Rooms {
		fmt.Printf("%s: %d days exported of %d visited, %d messages, %d uploads",
			rs.RoomName, rs.DaysExported, rs.DaysVisited, rs.Messages, rs.Uploads)
		if rs.DeletedUploads > 0 {
			fmt.Printf(", %d deleted uploads", rs.DeletedUploads)
		}
		if rs.Errors > 0 {
			fmt.Printf(", %d errors", rs.Errors)
		}
		fmt.Println()
	}
	fmt.Printf("Finished in %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}

// newLogger собирает логгер экспортера: уровень и формат из конфигурации,
// маскировка учетных данных поверх базового обработчика.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return applog.NewMaskedLogger(handler)
}
