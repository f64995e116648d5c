// Пакет config — загрузка и валидация конфигурации DICRI Console
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации DICRI Console.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера консоли (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Удалённый DICRI API ---

	// Базовый URL API (например, http://localhost:3000/api). Обязательный.
	APIURL string
	// Таймаут HTTP-запросов к API (по умолчанию 30s)
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS (пустая строка — стандартный пул)
	APICACertPath string
	// Путь health endpoint API относительно APIURL
	APIHealthPath string

	// --- Сессия ---

	// Путь к SQLite-файлу локального хранилища сессии
	SessionDBPath string
	// Ключ шифрования слота сессии (пустой — случайный, сессия не переживает рестарт)
	SessionSecret string //nolint:gosec // G101: поле структуры

	// --- Кэши ---

	// Максимальное количество карточек expediente в detail-кэше
	DetailCacheSize int
	// TTL записи detail-кэша
	DetailCacheTTL time.Duration
	// TTL кэша справочника пользователей (GET /usuarios)
	DirectoryCacheTTL time.Duration
	// Время жизни уведомления в ленте
	NotificationTTL time.Duration

	// --- topologymetrics ---

	DephealthEnabled       bool
	DephealthGroup         string
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DC_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("DC_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("DC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DC_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	// DC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DC_LOG_LEVEL: %w", err)
	}

	// DC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DC_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DC_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("DC_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("DC_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("DC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Удалённый DICRI API ---

	// DC_API_URL — базовый URL API (обязательный)
	cfg.APIURL, err = getEnvRequired("DC_API_URL")
	if err != nil {
		return nil, err
	}
	if parsed, parseErr := url.Parse(cfg.APIURL); parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("DC_API_URL: некорректный URL %q", cfg.APIURL)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	cfg.APITimeout, err = getEnvDurationPositive("DC_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_API_TIMEOUT: %w", err)
	}
	cfg.APICACertPath = os.Getenv("DC_API_CA_CERT_PATH")
	cfg.APIHealthPath = getEnvDefault("DC_API_HEALTH_PATH", "/health")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		return nil, fmt.Errorf("DC_API_HEALTH_PATH: путь должен начинаться с '/': %q", cfg.APIHealthPath)
	}

	// --- Сессия ---

	cfg.SessionDBPath = getEnvDefault("DC_SESSION_DB_PATH", "dicri-console.db")
	cfg.SessionSecret = os.Getenv("DC_SESSION_SECRET")

	// --- Кэши ---

	cfg.DetailCacheSize, err = getEnvInt("DC_DETAIL_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("DC_DETAIL_CACHE_SIZE: %w", err)
	}
	if cfg.DetailCacheSize <= 0 {
		return nil, fmt.Errorf("DC_DETAIL_CACHE_SIZE: значение должно быть > 0")
	}
	cfg.DetailCacheTTL, err = getEnvDurationPositive("DC_DETAIL_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DC_DETAIL_CACHE_TTL: %w", err)
	}
	cfg.DirectoryCacheTTL, err = getEnvDurationPositive("DC_DIRECTORY_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DC_DIRECTORY_CACHE_TTL: %w", err)
	}
	cfg.NotificationTTL, err = getEnvDurationPositive("DC_NOTIFICATION_TTL", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_NOTIFICATION_TTL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthEnabled, err = getEnvBool("DC_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("DC_DEPHEALTH_ENABLED: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("DC_DEPHEALTH_GROUP", "dicri")
	cfg.DephealthCheckInterval, err = getEnvDurationPositive("DC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но дополнительно требует значение > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
