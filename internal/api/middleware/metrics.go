// metrics.go — Prometheus HTTP метрики FinDocs.
// Регистрирует метрики: fd_http_requests_total, fd_http_request_duration_seconds.
// Бизнес-метрики (fd_files_total, fd_storage_bytes, fd_operations_total)
// обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fd_http_requests_total",
			Help: "Общее количество HTTP-запросов к FinDocs",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fd_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к FinDocs в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// FilesTotal — текущее количество записей по категориям (gauge).
	FilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fd_files_total",
			Help: "Текущее количество записей в хранилище",
		},
		[]string{"category"},
	)

	// StorageBytes — суммарный размер загруженных файлов (gauge).
	StorageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fd_storage_bytes",
			Help: "Суммарный размер загруженных файлов в байтах",
		},
	)

	// OperationsTotal — общее количество файловых операций.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fd_operations_total",
			Help: "Общее количество файловых операций",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов
			// (id заменяется на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// normalizePath заменяет числовые id в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/download/42 → /api/download/{id}, /api/files/42 → /api/files/{id}
func normalizePath(path string) string {
	switch {
	case path == "/api/files", path == "/api/stats", path == "/api/upload",
		path == "/metrics", path == "/health/live", path == "/health/ready":
		return path
	case strings.HasPrefix(path, "/api/download/"):
		if isNumericSegment(path[len("/api/download/"):]) {
			return "/api/download/{id}"
		}
	case strings.HasPrefix(path, "/api/files/"):
		if isNumericSegment(path[len("/api/files/"):]) {
			return "/api/files/{id}"
		}
	case path == "/" || !strings.HasPrefix(path, "/api/"):
		// Статика лендинга — один лейбл на всё
		return "/static"
	}
	return path
}

// isNumericSegment проверяет, что сегмент состоит только из цифр.
func isNumericSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for _, c := range segment {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
