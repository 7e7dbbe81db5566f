// delete.go — сервис удаления файлов.
// Сначала удаляется запись метаданных, затем блоб best-effort:
// отсутствие блоба на диске — полный успех (идемпотентная очистка).
package service

import (
	"log/slog"

	"github.com/bigkaa/findocs/internal/api/middleware"
	"github.com/bigkaa/findocs/internal/domain/model"
	"github.com/bigkaa/findocs/internal/storage/blobstore"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// DeleteService — сервис удаления файлов.
type DeleteService struct {
	blobs   *blobstore.BlobStore
	records *recordstore.Store
	logger  *slog.Logger
}

// NewDeleteService создаёт сервис удаления.
func NewDeleteService(blobs *blobstore.BlobStore, records *recordstore.Store, logger *slog.Logger) *DeleteService {
	return &DeleteService{
		blobs:   blobs,
		records: records,
		logger:  logger.With(slog.String("component", "delete_service")),
	}
}

// Delete удаляет запись и её блоб.
// Отсутствие записи — ErrRecordNotFound (штатный результат, 404 на
// HTTP-границе). Ошибка удаления блоба после снятия записи не
// считается сбоем операции: блоб-сироту подберёт orphan sweep.
func (s *DeleteService) Delete(id int64) (model.FileRecord, error) {
	removed, err := s.records.Remove(id)
	if err != nil {
		return model.FileRecord{}, err
	}

	if delErr := s.blobs.Delete(removed.StoredName); delErr != nil {
		s.logger.Warn("Запись удалена, но блоб удалить не удалось",
			slog.Int64("id", removed.ID),
			slog.String("stored_name", removed.StoredName),
			slog.String("error", delErr.Error()),
		)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	middleware.FilesTotal.WithLabelValues(string(removed.Category)).Dec()
	middleware.StorageBytes.Sub(float64(removed.SizeBytes))

	s.logger.Info("Файл удалён",
		slog.Int64("id", removed.ID),
		slog.String("filename", removed.OriginalName),
		slog.String("stored_name", removed.StoredName),
	)

	return removed, nil
}
