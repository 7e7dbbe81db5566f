// health.go — обработчики health endpoints.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/findocs/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// uploadDir — директория блобов (для проверки FS)
	uploadDir string
	// storePath — путь документа хранилища метаданных
	storePath string
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(uploadDir, storePath string) *HealthHandler {
	return &HealthHandler{
		version:   config.Version,
		uploadDir: uploadDir,
		storePath: storePath,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "findocs",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет доступность директории загрузок на запись и
// читаемость директории документа хранилища.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	fsCheck := h.checkUploadDir()
	if fsCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	storeCheck := h.checkStoreDir()
	if storeCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]any{
			"upload_dir": fsCheck,
			"store":      storeCheck,
		},
	})
}

// checkUploadDir проверяет директорию загрузок на запись через temp файл.
func (h *HealthHandler) checkUploadDir() map[string]string {
	testFile := filepath.Join(h.uploadDir, ".health_write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o640); err != nil {
		return map[string]string{"status": statusFail, "error": err.Error()}
	}
	os.Remove(testFile)
	return map[string]string{"status": "ok"}
}

// checkStoreDir проверяет, что директория документа хранилища существует.
func (h *HealthHandler) checkStoreDir() map[string]string {
	dir := filepath.Dir(h.storePath)
	info, err := os.Stat(dir)
	if err != nil {
		return map[string]string{"status": statusFail, "error": err.Error()}
	}
	if !info.IsDir() {
		return map[string]string{"status": statusFail, "error": "путь не является директорией"}
	}
	return map[string]string{"status": "ok"}
}
