// Пакет service — бизнес-логика FinDocs.
// upload.go — координатор жизненного цикла загрузки: блоб на диск,
// затем запись метаданных; при сбое записи — компенсирующее
// удаление блоба.
package service

import (
	"errors"
	"io"
	"log/slog"

	"github.com/bigkaa/findocs/internal/api/middleware"
	"github.com/bigkaa/findocs/internal/domain/model"
	"github.com/bigkaa/findocs/internal/storage/blobstore"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// UploadItem — один файл входящей загрузки.
type UploadItem struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalName — имя файла, присланное клиентом
	OriginalName string
}

// UploadFailure — отказ по одному файлу батча.
type UploadFailure struct {
	// Filename — оригинальное имя файла
	Filename string `json:"filename"`
	// Error — описание ошибки
	Error string `json:"error"`
}

// BatchResult — результат обработки батча загрузки.
// Частичный успех штатен: батч никогда не откатывается целиком.
type BatchResult struct {
	Uploaded []model.FileRecord
	Failures []UploadFailure
}

// UploadService — координатор загрузки файлов.
type UploadService struct {
	blobs   *blobstore.BlobStore
	records *recordstore.Store
	logger  *slog.Logger
}

// NewUploadService создаёт координатор загрузки.
func NewUploadService(blobs *blobstore.BlobStore, records *recordstore.Store, logger *slog.Logger) *UploadService {
	return &UploadService{
		blobs:   blobs,
		records: records,
		logger:  logger.With(slog.String("component", "upload_service")),
	}
}

// UploadBatch обрабатывает батч файлов с общей заметкой.
// Каждый файл обрабатывается независимо:
//  1. Проверка расширения по allow-list (до записи байтов)
//  2. Запись блоба на диск с подсчётом MD5 на лету
//  3. Добавление записи метаданных в хранилище
//
// Единственная гарантия порядка между хранилищами: блоб записывается
// до коммита записи. При сбое шага 3 выполняется компенсирующее
// удаление блоба; если и оно не удалось — блоб-сирота логируется
// (его подберёт orphan sweep).
func (s *UploadService) UploadBatch(items []UploadItem, note string) BatchResult {
	var result BatchResult

	for _, item := range items {
		rec, err := s.uploadOne(item, note)
		if err != nil {
			middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
			result.Failures = append(result.Failures, UploadFailure{
				Filename: item.OriginalName,
				Error:    err.Error(),
			})
			continue
		}

		middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
		middleware.FilesTotal.WithLabelValues(string(rec.Category)).Inc()
		middleware.StorageBytes.Add(float64(rec.SizeBytes))

		result.Uploaded = append(result.Uploaded, rec)
	}

	return result
}

// uploadOne обрабатывает один файл батча.
func (s *UploadService) uploadOne(item UploadItem, note string) (model.FileRecord, error) {
	saved, err := s.blobs.Save(item.Reader, item.OriginalName)
	if err != nil {
		if !errors.Is(err, blobstore.ErrUnsupportedType) {
			s.logger.Error("Ошибка сохранения блоба",
				slog.String("filename", item.OriginalName),
				slog.String("error", err.Error()),
			)
		}
		return model.FileRecord{}, err
	}

	rec, err := s.records.Append(model.FileRecord{
		StoredName:         saved.StoredName,
		OriginalName:       item.OriginalName,
		Category:           model.CategoryForFilename(item.OriginalName),
		SizeBytes:          saved.Size,
		ContentFingerprint: saved.Fingerprint,
		Note:               note,
	})
	if err != nil {
		s.logger.Error("Ошибка записи метаданных, компенсирующее удаление блоба",
			slog.String("filename", item.OriginalName),
			slog.String("stored_name", saved.StoredName),
			slog.String("error", err.Error()),
		)

		// Компенсация: блоб без записи бесполезен
		if delErr := s.blobs.Delete(saved.StoredName); delErr != nil {
			s.logger.Error("Компенсация не удалась, блоб остаётся сиротой",
				slog.String("stored_name", saved.StoredName),
				slog.String("error", delErr.Error()),
			)
		}
		return model.FileRecord{}, err
	}

	s.logger.Info("Файл загружен",
		slog.Int64("id", rec.ID),
		slog.String("filename", rec.OriginalName),
		slog.String("stored_name", rec.StoredName),
		slog.String("category", string(rec.Category)),
		slog.Int64("size", rec.SizeBytes),
		slog.String("fingerprint", rec.ContentFingerprint),
	)

	return rec, nil
}
