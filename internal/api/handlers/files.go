// files.go — HTTP handlers файловых операций FinDocs.
// List, Stats, Upload, Download, Delete.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/findocs/internal/api/errors"
	"github.com/bigkaa/findocs/internal/config"
	"github.com/bigkaa/findocs/internal/domain/model"
	"github.com/bigkaa/findocs/internal/service"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// multipartMemoryLimit — буфер парсинга multipart form в памяти;
// остальное уходит во временные файлы net/http.
const multipartMemoryLimit = 32 << 20 // 32 MiB

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	cfg         *config.Config
	uploadSvc   *service.UploadService
	downloadSvc *service.DownloadService
	deleteSvc   *service.DeleteService
	querySvc    *service.QueryService
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	cfg *config.Config,
	uploadSvc *service.UploadService,
	downloadSvc *service.DownloadService,
	deleteSvc *service.DeleteService,
	querySvc *service.QueryService,
) *FilesHandler {
	return &FilesHandler{
		cfg:         cfg,
		uploadSvc:   uploadSvc,
		downloadSvc: downloadSvc,
		deleteSvc:   deleteSvc,
		querySvc:    querySvc,
	}
}

// ListFiles обрабатывает GET /api/files.
// Возвращает все записи, новые первые.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, _ *http.Request) {
	files := h.querySvc.ListAll()
	if files == nil {
		files = []model.FileRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"files":   files,
	})
}

// GetStats обрабатывает GET /api/stats.
func (h *FilesHandler) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   h.querySvc.Stats(),
	})
}

// UploadFiles обрабатывает POST /api/upload.
// Multipart form: files (1..N файлов), notes (опционально, общая
// заметка для всех файлов батча).
// Частичный успех штатен: success=true при хотя бы одном успехе,
// ошибки по файлам собираются в errors.
func (h *FilesHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		apierrors.ValidationError(w, "Поле 'files' обязательно: не приложено ни одного файла")
		return
	}
	if len(fileHeaders) > h.cfg.MaxUploadFiles {
		apierrors.ValidationError(w, fmt.Sprintf(
			"Слишком много файлов: %d, максимум %d за одну загрузку",
			len(fileHeaders), h.cfg.MaxUploadFiles,
		))
		return
	}

	note := r.FormValue("notes")

	items := make([]service.UploadItem, 0, len(fileHeaders))
	var preOpenFailures []service.UploadFailure

	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			preOpenFailures = append(preOpenFailures, service.UploadFailure{
				Filename: header.Filename,
				Error:    "не удалось прочитать часть multipart",
			})
			continue
		}
		defer f.Close()

		items = append(items, service.UploadItem{
			Reader:       f,
			OriginalName: header.Filename,
		})
	}

	result := h.uploadSvc.UploadBatch(items, note)
	result.Failures = append(result.Failures, preOpenFailures...)

	uploaded := result.Uploaded
	if uploaded == nil {
		uploaded = []model.FileRecord{}
	}
	failures := result.Failures
	if failures == nil {
		failures = []service.UploadFailure{}
	}

	status := http.StatusOK
	if len(uploaded) == 0 {
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]any{
		"success":  len(uploaded) > 0,
		"uploaded": uploaded,
		"errors":   failures,
		"message":  fmt.Sprintf("Загружено файлов: %d", len(uploaded)),
	})
}

// DownloadFile обрабатывает GET /api/download/{id}.
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if downloadErr := h.downloadSvc.Serve(w, r, id); downloadErr != nil {
		apierrors.WriteError(w, downloadErr.StatusCode, downloadErr.Code, downloadErr.Message)
	}
}

// DeleteFile обрабатывает DELETE /api/files/{id}.
// Неизвестный id — 404; отсутствие блоба на диске не мешает успеху.
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	removed, err := h.deleteSvc.Delete(id)
	if err != nil {
		if errors.Is(err, recordstore.ErrRecordNotFound) {
			apierrors.NotFound(w, fmt.Sprintf("Файл %d не найден", id))
			return
		}
		apierrors.InternalError(w, fmt.Sprintf("Ошибка удаления файла: %s", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Файл %q удалён", removed.OriginalName),
	})
}

// parseID извлекает числовой id из URL-параметра {id}.
// При некорректном значении пишет 400 и возвращает ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный идентификатор файла: %q", raw))
		return 0, false
	}
	return id, true
}

// writeJSON — вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
