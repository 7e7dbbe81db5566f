// Точка входа FinDocs — сервиса загрузки финансовых документов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/findocs/internal/api/handlers"
	"github.com/bigkaa/findocs/internal/api/middleware"
	"github.com/bigkaa/findocs/internal/config"
	"github.com/bigkaa/findocs/internal/domain/model"
	"github.com/bigkaa/findocs/internal/server"
	"github.com/bigkaa/findocs/internal/service"
	"github.com/bigkaa/findocs/internal/storage/blobstore"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("FinDocs запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("upload_dir", cfg.UploadDir),
		slog.String("store_path", cfg.StorePath),
	)

	// --- Инициализация компонентов ---

	// 1. Хранилище блобов
	blobs, err := blobstore.New(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		logger.Error("Ошибка инициализации BlobStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Хранилище метаданных (повреждённый документ сбрасывается
	// к пустому состоянию внутри Open)
	records, err := recordstore.Open(cfg.StorePath, logger)
	if err != nil {
		logger.Error("Ошибка открытия хранилища метаданных", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Засеваем Prometheus метрики текущим состоянием
	seedFileMetrics(records)

	// 3. Сервисы
	uploadSvc := service.NewUploadService(blobs, records, logger)
	downloadSvc := service.NewDownloadService(blobs, records, logger)
	deleteSvc := service.NewDeleteService(blobs, records, logger)
	querySvc := service.NewQueryService(records)

	// 4. Фоновая очистка блобов-сирот
	sweepSvc := service.NewSweepService(blobs, records, cfg.SweepInterval, cfg.SweepMinAge, logger)
	sweepSvc.Start(context.Background())

	// 5. Handlers
	filesHandler := handlers.NewFilesHandler(cfg, uploadSvc, downloadSvc, deleteSvc, querySvc)
	healthHandler := handlers.NewHealthHandler(cfg.UploadDir, cfg.StorePath)

	// 6. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, filesHandler, healthHandler)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	sweepSvc.Stop()

	logger.Info("FinDocs остановлен")
}

// seedFileMetrics выставляет gauge-метрики из текущего состояния хранилища.
func seedFileMetrics(records *recordstore.Store) {
	stats := records.Aggregate()
	for _, category := range []model.FileCategory{
		model.CategorySpreadsheet, model.CategoryOFX, model.CategoryPDF, model.CategoryUnknown,
	} {
		middleware.FilesTotal.WithLabelValues(string(category)).Set(float64(stats.ByType[category]))
	}
	middleware.StorageBytes.Set(float64(stats.TotalSize))
}
