// sweep.go — фоновая очистка блобов-сирот.
//
// Сирота — блоб в директории загрузок, на который не ссылается ни
// одна запись метаданных. Возникает в принятом отказном сценарии:
// блоб записан, а коммит записи не состоялся и компенсация не
// сработала. Sweep периодически сканирует директорию и удаляет
// сирот старше грейс-периода, чтобы не трогать загрузки в полёте.
//
// Запускается как горутина с периодическим тикером (FD_SWEEP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/findocs/internal/storage/blobstore"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// Prometheus метрики sweep
var (
	// sweepRunsTotal — количество запусков sweep.
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fd_sweep_runs_total",
		Help: "Общее количество запусков orphan sweep",
	})

	// sweepOrphansDeletedTotal — количество удалённых блобов-сирот.
	sweepOrphansDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fd_sweep_orphans_deleted_total",
		Help: "Общее количество блобов-сирот, удалённых sweep",
	})

	// sweepDurationSeconds — длительность выполнения sweep.
	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fd_sweep_duration_seconds",
		Help:    "Длительность выполнения orphan sweep в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// SweepResult — результат одного запуска sweep.
type SweepResult struct {
	// Scanned — количество просмотренных блобов
	Scanned int
	// Deleted — количество удалённых сирот
	Deleted int
	// Errors — количество ошибок при обработке
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// SweepService — фоновая очистка блобов-сирот.
type SweepService struct {
	blobs    *blobstore.BlobStore
	records  *recordstore.Store
	interval time.Duration
	minAge   time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // защита от параллельного запуска RunOnce
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSweepService создаёт сервис очистки сирот.
func NewSweepService(
	blobs *blobstore.BlobStore,
	records *recordstore.Store,
	interval, minAge time.Duration,
	logger *slog.Logger,
) *SweepService {
	return &SweepService{
		blobs:    blobs,
		records:  records,
		interval: interval,
		minAge:   minAge,
		logger:   logger.With(slog.String("component", "sweep")),
	}
}

// Start запускает фоновую горутину sweep с периодическим тикером.
// Вызывается один раз при старте приложения. При interval <= 0
// sweep отключён.
func (s *SweepService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Orphan sweep отключён (интервал 0)")
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.done = make(chan struct{})

	go s.run(sweepCtx)

	s.logger.Info("Orphan sweep запущен",
		slog.Duration("interval", s.interval),
		slog.Duration("min_age", s.minAge),
	)
}

// Stop останавливает фоновую горутину и дожидается её завершения.
func (s *SweepService) Stop() {
	if !s.running {
		return
	}
	s.cancel()
	<-s.done
	s.running = false
	s.logger.Info("Orphan sweep остановлен")
}

// run — основной цикл фоновой горутины.
func (s *SweepService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := s.RunOnce()
			if result.Deleted > 0 || result.Errors > 0 {
				s.logger.Info("Sweep завершён",
					slog.Int("scanned", result.Scanned),
					slog.Int("deleted", result.Deleted),
					slog.Int("errors", result.Errors),
					slog.Duration("duration", result.Duration),
				)
			}
		}
	}
}

// RunOnce выполняет один проход очистки и возвращает результат.
// Потокобезопасен: параллельные вызовы сериализуются.
func (s *SweepService) RunOnce() SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	sweepRunsTotal.Inc()

	var result SweepResult

	entries, err := os.ReadDir(s.blobs.UploadDir())
	if err != nil {
		s.logger.Error("Ошибка сканирования директории загрузок",
			slog.String("dir", s.blobs.UploadDir()),
			slog.String("error", err.Error()),
		)
		result.Errors++
		result.Duration = time.Since(start)
		sweepDurationSeconds.Observe(result.Duration.Seconds())
		return result
	}

	cutoff := time.Now().Add(-s.minAge)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		// Недописанные temp файлы живой загрузки не трогаем
		if strings.HasSuffix(name, ".tmp") {
			continue
		}

		// Документ хранилища метаданных, если он размещён
		// внутри директории загрузок, не является блобом
		if filepath.Join(s.blobs.UploadDir(), name) == s.records.Path() {
			continue
		}

		result.Scanned++

		if s.records.Contains(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			result.Errors++
			continue
		}
		if info.ModTime().After(cutoff) {
			// Слишком свежий: возможно, загрузка ещё в полёте
			continue
		}

		if err := s.blobs.Delete(name); err != nil {
			s.logger.Error("Ошибка удаления блоба-сироты",
				slog.String("stored_name", name),
				slog.String("error", err.Error()),
			)
			result.Errors++
			continue
		}

		sweepOrphansDeletedTotal.Inc()
		result.Deleted++

		s.logger.Warn("Удалён блоб-сирота",
			slog.String("stored_name", name),
			slog.String("path", filepath.Join(s.blobs.UploadDir(), name)),
		)
	}

	result.Duration = time.Since(start)
	sweepDurationSeconds.Observe(result.Duration.Seconds())

	return result
}
