package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, map[string]string{"DC_API_URL": "http://localhost:3000/api/"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "http://localhost:3000/api" {
		t.Errorf("APIURL = %q, ожидается без trailing slash", cfg.APIURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, ожидается 30s", cfg.APITimeout)
	}
	if cfg.APIHealthPath != "/health" {
		t.Errorf("APIHealthPath = %q, ожидается /health", cfg.APIHealthPath)
	}
	if cfg.SessionDBPath != "dicri-console.db" {
		t.Errorf("SessionDBPath = %q, ожидается dicri-console.db", cfg.SessionDBPath)
	}
	if cfg.DetailCacheSize != 256 {
		t.Errorf("DetailCacheSize = %d, ожидается 256", cfg.DetailCacheSize)
	}
	if cfg.NotificationTTL != 10*time.Second {
		t.Errorf("NotificationTTL = %v, ожидается 10s", cfg.NotificationTTL)
	}
	if !cfg.DephealthEnabled {
		t.Error("DephealthEnabled = false, ожидается true")
	}
	if cfg.DephealthGroup != "dicri" {
		t.Errorf("DephealthGroup = %q, ожидается dicri", cfg.DephealthGroup)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setEnvs(t, map[string]string{
		"DC_API_URL":             "https://dicri.example.org/api",
		"DC_PORT":                "9000",
		"DC_LOG_LEVEL":           "debug",
		"DC_LOG_FORMAT":          "text",
		"DC_API_TIMEOUT":         "5s",
		"DC_DETAIL_CACHE_SIZE":   "10",
		"DC_DEPHEALTH_ENABLED":   "false",
		"DC_NOTIFICATION_TTL":    "1m",
		"DC_API_HEALTH_PATH":     "/api/health",
		"DC_SESSION_DB_PATH":     "/tmp/s.db",
		"DC_DIRECTORY_CACHE_TTL": "30s",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, ожидается 9000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %v, ожидается 5s", cfg.APITimeout)
	}
	if cfg.DetailCacheSize != 10 {
		t.Errorf("DetailCacheSize = %d, ожидается 10", cfg.DetailCacheSize)
	}
	if cfg.DephealthEnabled {
		t.Error("DephealthEnabled = true, ожидается false")
	}
	if cfg.NotificationTTL != time.Minute {
		t.Errorf("NotificationTTL = %v, ожидается 1m", cfg.NotificationTTL)
	}
	if cfg.DirectoryCacheTTL != 30*time.Second {
		t.Errorf("DirectoryCacheTTL = %v, ожидается 30s", cfg.DirectoryCacheTTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
	}{
		{name: "нет DC_API_URL", envs: map[string]string{}},
		{name: "URL без схемы", envs: map[string]string{"DC_API_URL": "localhost:3000"}},
		{name: "некорректный порт", envs: map[string]string{"DC_API_URL": "http://a", "DC_PORT": "abc"}},
		{name: "порт вне диапазона", envs: map[string]string{"DC_API_URL": "http://a", "DC_PORT": "70000"}},
		{name: "неизвестный уровень логов", envs: map[string]string{"DC_API_URL": "http://a", "DC_LOG_LEVEL": "trace"}},
		{name: "неизвестный формат логов", envs: map[string]string{"DC_API_URL": "http://a", "DC_LOG_FORMAT": "xml"}},
		{name: "нулевой таймаут API", envs: map[string]string{"DC_API_URL": "http://a", "DC_API_TIMEOUT": "0s"}},
		{name: "размер кэша 0", envs: map[string]string{"DC_API_URL": "http://a", "DC_DETAIL_CACHE_SIZE": "0"}},
		{name: "health path без слэша", envs: map[string]string{"DC_API_URL": "http://a", "DC_API_HEALTH_PATH": "health"}},
		{name: "некорректный bool", envs: map[string]string{"DC_API_URL": "http://a", "DC_DEPHEALTH_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DC_API_URL", "")
			setEnvs(t, tt.envs)
			if _, err := Load(); err == nil {
				t.Error("ожидалась ошибка, получен nil")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil {
			t.Errorf("parseLogLevel(%q): неожиданная ошибка %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидается %v", tt.in, got, tt.want)
		}
	}
}
