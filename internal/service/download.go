// download.go — сервис скачивания файлов.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/findocs/internal/api/errors"
	"github.com/bigkaa/findocs/internal/api/middleware"
	"github.com/bigkaa/findocs/internal/storage/blobstore"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// DownloadService — сервис скачивания файлов.
type DownloadService struct {
	blobs   *blobstore.BlobStore
	records *recordstore.Store
	logger  *slog.Logger
}

// NewDownloadService создаёт сервис скачивания.
func NewDownloadService(blobs *blobstore.BlobStore, records *recordstore.Store, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		blobs:   blobs,
		records: records,
		logger:  logger.With(slog.String("component", "download_service")),
	}
}

// DownloadError — ошибка скачивания с HTTP-кодом.
type DownloadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Serve отдаёт файл клиенту через http.ServeContent.
// Поддерживает Range requests (206 Partial Content) и ETag
// (If-None-Match) на основе отпечатка содержимого.
// Неизвестный id и отсутствующий на диске блоб — 404.
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, id int64) *DownloadError {
	rec, err := s.records.FindByID(id)
	if err != nil {
		return &DownloadError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %d не найден", id),
		}
	}

	file, err := s.blobs.Open(rec.StoredName)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			s.logger.Warn("Блоб отсутствует на диске",
				slog.Int64("id", id),
				slog.String("stored_name", rec.StoredName),
			)
			return &DownloadError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %d не найден на диске", id),
			}
		}
		s.logger.Error("Ошибка открытия блоба",
			slog.Int64("id", id),
			slog.String("stored_name", rec.StoredName),
			slog.String("error", err.Error()),
		)
		return &DownloadError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return &DownloadError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalName))
	w.Header().Set("ETag", fmt.Sprintf("%q", rec.ContentFingerprint))
	w.Header().Set("Accept-Ranges", "bytes")

	// http.ServeContent обрабатывает Range, If-None-Match,
	// If-Modified-Since и Content-Length
	http.ServeContent(w, r, rec.OriginalName, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Debug("Файл скачан",
		slog.Int64("id", id),
		slog.String("filename", rec.OriginalName),
		slog.Int64("size", rec.SizeBytes),
	)

	return nil
}
