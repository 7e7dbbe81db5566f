package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// clearAllFDEnvVars очищает все переменные окружения FD_* для чистого теста.
func clearAllFDEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"FD_PORT", "FD_UPLOAD_DIR", "FD_STORE_PATH", "FD_STATIC_DIR",
		"FD_MAX_FILE_SIZE", "FD_MAX_UPLOAD_FILES",
		"FD_SWEEP_INTERVAL", "FD_SWEEP_MIN_AGE",
		"FD_LOG_LEVEL", "FD_LOG_FORMAT", "FD_SHUTDOWN_TIMEOUT",
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			// t.Setenv восстановит оригинал по завершении теста
			t.Setenv(k, v)
		}
		os.Unsetenv(k)
	}
}

// setRequired устанавливает минимальный набор обязательных переменных.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FD_UPLOAD_DIR", "/tmp/findocs/uploads")
	t.Setenv("FD_STORE_PATH", "/tmp/findocs/data/findocs.json")
}

// TestLoad_Defaults проверяет значения по умолчанию.
func TestLoad_Defaults(t *testing.T) {
	clearAllFDEnvVars(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("MaxFileSize: ожидалось %d, получено %d", 50*1024*1024, cfg.MaxFileSize)
	}
	if cfg.MaxUploadFiles != 20 {
		t.Errorf("MaxUploadFiles: ожидалось 20, получено %d", cfg.MaxUploadFiles)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval: ожидалось 1h, получено %s", cfg.SweepInterval)
	}
	if cfg.SweepMinAge != 24*time.Hour {
		t.Errorf("SweepMinAge: ожидалось 24h, получено %s", cfg.SweepMinAge)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %s", cfg.ShutdownTimeout)
	}
}

// TestLoad_MissingRequired проверяет ошибку при отсутствии обязательных переменных.
func TestLoad_MissingRequired(t *testing.T) {
	clearAllFDEnvVars(t)

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка при отсутствии FD_UPLOAD_DIR")
	}

	t.Setenv("FD_UPLOAD_DIR", "/tmp/findocs/uploads")
	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка при отсутствии FD_STORE_PATH")
	}
}

// TestLoad_InvalidValues проверяет валидацию некорректных значений.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"некорректный порт", "FD_PORT", "abc"},
		{"порт вне диапазона", "FD_PORT", "70000"},
		{"отрицательный размер", "FD_MAX_FILE_SIZE", "-1"},
		{"нулевой лимит файлов", "FD_MAX_UPLOAD_FILES", "0"},
		{"некорректная длительность", "FD_SWEEP_INTERVAL", "каждый час"},
		{"некорректный уровень", "FD_LOG_LEVEL", "verbose"},
		{"некорректный формат", "FD_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAllFDEnvVars(t)
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для %s=%q", tt.key, tt.value)
			}
		})
	}
}

// TestLoad_Overrides проверяет переопределение значений из окружения.
func TestLoad_Overrides(t *testing.T) {
	clearAllFDEnvVars(t)
	setRequired(t)
	t.Setenv("FD_PORT", "9000")
	t.Setenv("FD_MAX_FILE_SIZE", "1048576")
	t.Setenv("FD_SWEEP_INTERVAL", "0s")
	t.Setenv("FD_LOG_LEVEL", "debug")
	t.Setenv("FD_LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port: ожидалось 9000, получено %d", cfg.Port)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: ожидалось 1048576, получено %d", cfg.MaxFileSize)
	}
	if cfg.SweepInterval != 0 {
		t.Errorf("SweepInterval: ожидалось 0, получено %s", cfg.SweepInterval)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text, получено %q", cfg.LogFormat)
	}
}
