package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"campfire-export/internal/domain"
	"campfire-export/internal/pkg/config"
)

// dateLayout — формат границ экспорта в теле запроса.
const dateLayout = "2006-01-02"

// ExportRunner определяет интерфейс для варианта использования, который выполняет экспорт.
type ExportRunner interface {
	RunExport(ctx context.Context, subdomain, token string, start, end time.Time) (*domain.ExportSummary, error)
}

// exportRequest — тело POST /api/v1/export.
type exportRequest struct {
	Subdomain string `json:"subdomain"`
	APIToken  string `json:"api_token"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, пусто - без нижней границы
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, пусто - без верхней границы
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	runner     ExportRunner
}

// New создает новый экземпляр Server
func New(cfg *config.Config, runner ExportRunner, taskStore *TaskStore) (*Server, error) {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Конечная точка для запуска новой задачи экспорта
		r.Post("/export", func(w http.ResponseWriter, r *http.Request) {
			var req exportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
				return
			}

			if req.Subdomain == "" || req.APIToken == "" {
				http.Error(w, "Требуются subdomain и api_token", http.StatusBadRequest)
				return
			}

			start, err := parseDate(req.StartDate)
			if err != nil {
				http.Error(w, "Недопустимый start_date (ожидается YYYY-MM-DD)", http.StatusBadRequest)
				return
			}
			end, err := parseDate(req.EndDate)
			if err != nil {
				http.Error(w, "Недопустимый end_date (ожидается YYYY-MM-DD)", http.StatusBadRequest)
				return
			}

			// Генерация уникального идентификатора задачи
			taskID := uuid.NewString()

			// Создание задачи в хранилище
			taskStore.CreateTask(taskID, cfg.TaskTTL())

			// Запуск экспорта в горутине. Сам экспорт строго
			// последовательный, параллелизм ограничен числом задач.
			go func() {
				taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

				summary, err := runner.RunExport(context.Background(), req.Subdomain, req.APIToken, start, end)
				if err != nil {
					slog.Error("export task failed", "task_id", taskID, "subdomain", req.Subdomain, "error", err)
					taskStore.UpdateTaskError(taskID, err.Error())
					return
				}

				taskStore.UpdateTaskResult(taskID, summary)
			}()

			// Возврат идентификатора задачи
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
		})

		// Конечная точка для проверки статуса задачи
		r.Get("/tasks/{taskID}", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "Задача не найдена", http.StatusNotFound)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"task_id":       task.ID,
				"status":        task.Status,
				"error_message": task.ErrorMessage,
			})
		})

		// Конечная точка для получения сводки завершенной задачи
		r.Get("/tasks/{taskID}/result", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "Задача не найдена", http.StatusNotFound)
				return
			}

			if task.Status != TaskStatusCompleted {
				http.Error(w, "Задача не завершена", http.StatusBadRequest)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(task.Result)
		})
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  config.DefaultReadTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}

	s := &Server{
		HTTPServer: httpServer,
		cfg:        cfg,
		taskStore:  taskStore,
		runner:     runner,
	}

	// Запуск тикера для очистки просроченных задач
	ctx := context.Background()
	s.taskStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}
