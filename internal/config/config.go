// Пакет config — загрузка и валидация конфигурации FinDocs
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации FinDocs.
// Явная структура, внедряемая при старте: глобальных путей
// и констант уровня пакета в коде нет.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к директории хранения блобов
	UploadDir string
	// Путь к JSON-документу хранилища метаданных
	StorePath string
	// Директория статики лендинга (пустая = встроенная страница)
	StaticDir string
	// Максимальный размер файла в байтах
	MaxFileSize int64
	// Максимальное количество файлов в одной загрузке
	MaxUploadFiles int
	// Интервал orphan sweep (0 = выключен)
	SweepInterval time.Duration
	// Минимальный возраст блоба-сироты для удаления
	SweepMinAge time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Файл .env в рабочей директории, если есть, загружается первым.
func Load() (*Config, error) {
	// .env — удобство локального запуска; отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg := &Config{}

	// FD_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("FD_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FD_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("FD_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// FD_UPLOAD_DIR — обязательный
	cfg.UploadDir, err = getEnvRequired("FD_UPLOAD_DIR")
	if err != nil {
		return nil, err
	}

	// FD_STORE_PATH — обязательный
	cfg.StorePath, err = getEnvRequired("FD_STORE_PATH")
	if err != nil {
		return nil, err
	}

	// FD_STATIC_DIR — директория статики (опционально)
	cfg.StaticDir = getEnvDefault("FD_STATIC_DIR", "")

	// FD_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	maxFileSize, err := getEnvInt64("FD_MAX_FILE_SIZE", 50*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("FD_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("FD_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// FD_MAX_UPLOAD_FILES — максимум файлов в одной загрузке (по умолчанию 20)
	maxFiles, err := getEnvInt("FD_MAX_UPLOAD_FILES", 20)
	if err != nil {
		return nil, fmt.Errorf("FD_MAX_UPLOAD_FILES: %w", err)
	}
	if maxFiles < 1 {
		return nil, fmt.Errorf("FD_MAX_UPLOAD_FILES: значение должно быть положительным")
	}
	cfg.MaxUploadFiles = maxFiles

	// FD_SWEEP_INTERVAL — интервал orphan sweep (по умолчанию 1h, 0 = выключен)
	cfg.SweepInterval, err = getEnvDuration("FD_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FD_SWEEP_INTERVAL: %w", err)
	}

	// FD_SWEEP_MIN_AGE — возраст блоба-сироты для удаления (по умолчанию 24h)
	cfg.SweepMinAge, err = getEnvDuration("FD_SWEEP_MIN_AGE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FD_SWEEP_MIN_AGE: %w", err)
	}
	if cfg.SweepMinAge < 0 {
		return nil, fmt.Errorf("FD_SWEEP_MIN_AGE: значение не может быть отрицательным")
	}

	// FD_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FD_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FD_LOG_LEVEL: %w", err)
	}

	// FD_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FD_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FD_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FD_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FD_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FD_SHUTDOWN_TIMEOUT: %w", err)
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

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
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
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
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
