// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// dateLayout — формат границ экспорта в конфигурации.
const dateLayout = "2006-01-02"

// Campfire содержит учетные данные аккаунта Campfire
type Campfire struct {
	Subdomain string `json:"subdomain" yaml:"subdomain"`
	APIToken  string `json:"api_token" yaml:"api_token"`
}

// Export содержит конфигурацию запуска экспорта
type Export struct {
	RootDir     string `json:"root_dir" yaml:"root_dir"`
	StartDate   string `json:"start_date" yaml:"start_date"` // YYYY-MM-DD, пусто - без нижней границы
	EndDate     string `json:"end_date" yaml:"end_date"`     // YYYY-MM-DD, пусто - без верхней границы
	RateLimitMS int    `json:"rate_limit_ms" yaml:"rate_limit_ms"`
	SummaryXLSX string `json:"summary_xlsx" yaml:"summary_xlsx"` // пусто - сводная книга не пишется
}

// Server содержит конфигурацию сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Processing содержит конфигурацию обработки задач сервера
type Processing struct {
	TaskTTLMinutes int `json:"task_ttl_minutes" yaml:"task_ttl_minutes"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Campfire   Campfire   `json:"campfire" yaml:"campfire"`
	Export     Export     `json:"export" yaml:"export"`
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию.
func defaultConfig() *Config {
	return &Config{
		Export: Export{
			RootDir:     DefaultRootDir,
			RateLimitMS: DefaultRateLimitMS,
		},
		Server: Server{
			Host:                   DefaultServerHost,
			Port:                   DefaultServerPort,
			ShutdownTimeoutSeconds: int(DefaultShutdownTimeout / time.Second),
		},
		Processing: Processing{
			TaskTTLMinutes: int(DefaultTaskTTL / time.Minute),
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig загружает конфигурацию приложения: значения по умолчанию,
// затем config.yml, затем переменные окружения (включая .env файл).
// Каждый следующий слой переопределяет предыдущий.
func LoadConfig(path string) (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env файла - это нормально
	}

	cfg := defaultConfig()

	if path == "" {
		path = "config.yml"
	}
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromYAML накладывает YAML-файл поверх cfg. Отсутствующий файл не
// считается ошибкой: конфигурация может целиком прийти из окружения.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// applyEnv накладывает переменные окружения поверх cfg.
func applyEnv(cfg *Config) error {
	cfg.Campfire.Subdomain = getEnv("CAMPFIRE_SUBDOMAIN", cfg.Campfire.Subdomain)
	cfg.Campfire.APIToken = getEnv("CAMPFIRE_API_TOKEN", cfg.Campfire.APIToken)
	cfg.Export.RootDir = getEnv("EXPORT_ROOT_DIR", cfg.Export.RootDir)
	cfg.Export.StartDate = getEnv("EXPORT_START_DATE", cfg.Export.StartDate)
	cfg.Export.EndDate = getEnv("EXPORT_END_DATE", cfg.Export.EndDate)
	cfg.Export.SummaryXLSX = getEnv("EXPORT_SUMMARY_XLSX", cfg.Export.SummaryXLSX)
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("EXPORT_RATE_LIMIT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый EXPORT_RATE_LIMIT_MS: %w", err)
		}
		cfg.Export.RateLimitMS = ms
	}

	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RateInterval возвращает паузу между экспортом соседних дней.
func (c *Config) RateInterval() time.Duration {
	return time.Duration(c.Export.RateLimitMS) * time.Millisecond
}

// ShutdownTimeout возвращает таймаут корректного завершения сервера.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// TaskTTL возвращает время жизни завершенной задачи экспорта на сервере.
func (c *Config) TaskTTL() time.Duration {
	return time.Duration(c.Processing.TaskTTLMinutes) * time.Minute
}

// StartTime возвращает нижнюю границу экспорта. Нулевое время означает
// "от создания комнаты".
func (c *Config) StartTime() (time.Time, error) {
	return parseDate(c.Export.StartDate, "export.start_date")
}

// EndTime возвращает верхнюю границу экспорта. Нулевое время означает
// "по последнее сообщение комнаты".
func (c *Config) EndTime() (time.Time, error) {
	return parseDate(c.Export.EndDate, "export.end_date")
}

func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("недопустимый %s (ожидается YYYY-MM-DD): %w", field, err)
	}
	return t, nil
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Export.RootDir == "" {
		return fmt.Errorf("export.root_dir не может быть пустым")
	}

	if c.Export.RateLimitMS < 0 {
		return fmt.Errorf("export.rate_limit_ms должно быть неотрицательным")
	}

	if _, err := c.StartTime(); err != nil {
		return err
	}
	if _, err := c.EndTime(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	if c.Processing.TaskTTLMinutes <= 0 {
		return fmt.Errorf("processing.task_ttl_minutes должно быть положительным целым числом")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
		// all good
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// ValidateExport дополнительно проверяет поля, обязательные для запуска
// экспорта из командной строки: учетные данные и обе границы диапазона.
// Сервер получает эти значения в теле запроса, поэтому для него эта
// проверка не выполняется.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Campfire.Subdomain == "" {
		return fmt.Errorf("campfire.subdomain не может быть пустым")
	}
	if c.Campfire.APIToken == "" {
		return fmt.Errorf("campfire.api_token не может быть пустым")
	}
	if c.Export.StartDate == "" {
		return fmt.Errorf("export.start_date не может быть пустым")
	}
	if c.Export.EndDate == "" {
		return fmt.Errorf("export.end_date не может быть пустым")
	}
	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
