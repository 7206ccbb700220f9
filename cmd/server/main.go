package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevlyar/go-daemon"

	applog "campfire-export/internal/log"
	"campfire-export/internal/pkg/config"
	"campfire-export/internal/server"
	"campfire-export/internal/server/usecase"
)

func main() {
	var (
		configPath string
		daemonize  bool
	)
	flag.StringVar(&configPath, "config", "config.yml", "Path to config file")
	flag.BoolVar(&daemonize, "daemon", false, "Run the server as a background daemon")
	flag.Parse()

	if daemonize {
		cntxt := &daemon.Context{
			PidFileName: "campfire-export.pid",
			PidFilePerm: 0644,
			LogFileName: "campfire-export.log",
			LogFilePerm: 0640,
			Umask:       027,
		}
		child, err := cntxt.Reborn()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to daemonize: %v\n", err)
			os.Exit(1)
		}
		if child != nil {
			// Родительский процесс завершается, сервер продолжает в потомке.
			return
		}
		defer cntxt.Release()
	}

	if err := run(configPath); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run(configPath string) error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	runner := usecase.NewRunExportUseCase(cfg, logger)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, runner, taskStore)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}

// newLogger собирает логгер сервера: уровень и формат из конфигурации,
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
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return applog.NewMaskedLogger(handler)
}
