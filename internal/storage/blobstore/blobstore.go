// Пакет blobstore — операции с физическими файлами в директории загрузок.
// Обеспечивает streaming-запись с подсчётом MD5 на лету, контроль
// максимального размера, allow-list расширений, чтение и удаление.
package blobstore

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bigkaa/findocs/internal/domain/model"
)

// ErrUnsupportedType — расширение файла вне allow-list.
// Проверяется до записи байтов на диск.
var ErrUnsupportedType = errors.New("тип файла не поддерживается")

// ErrPayloadTooLarge — размер содержимого превышает лимит.
var ErrPayloadTooLarge = errors.New("файл превышает максимальный размер")

// ErrBlobNotFound — файл отсутствует на диске.
var ErrBlobNotFound = errors.New("файл не найден на диске")

// BlobStore — управление физическими файлами в директории загрузок.
type BlobStore struct {
	// uploadDir — корневая директория хранения блобов (FD_UPLOAD_DIR)
	uploadDir string
	// maxFileSize — максимальный размер блоба в байтах
	maxFileSize int64
}

// SaveResult — результат сохранения блоба на диск.
type SaveResult struct {
	// StoredName — имя файла в uploadDir
	StoredName string
	// Size — размер записанных данных в байтах
	Size int64
	// Fingerprint — MD5 содержимого (hex)
	Fingerprint string
}

// New создаёт новый BlobStore. Проверяет и создаёт директорию
// если она не существует.
func New(uploadDir string, maxFileSize int64) (*BlobStore, error) {
	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", uploadDir, err)
	}

	return &BlobStore{uploadDir: uploadDir, maxFileSize: maxFileSize}, nil
}

// Save записывает данные из reader на диск с подсчётом MD5 на лету.
// Расширение проверяется по allow-list до создания файла.
// Формат имени: {timestamp}_{sanitized name}, пример:
// 20260828_151203_otchet_Q2.xlsx
//
// Паттерн: temp файл → запись + MD5 → fsync → atomic rename.
// При ошибке и при превышении лимита temp файл удаляется.
//
// Загрузка двух файлов с одинаковым именем в одну секунду
// перезаписывает блоб — известное ограничение схемы именования.
func (bs *BlobStore) Save(reader io.Reader, originalName string) (*SaveResult, error) {
	if model.CategoryForFilename(originalName) == model.CategoryUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(originalName))
	}

	storedName := generateStoredName(originalName)
	fullPath := filepath.Join(bs.uploadDir, storedName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	// Streaming запись с одновременным подсчётом MD5.
	// LimitReader на один байт больше лимита: ровно maxFileSize — ок,
	// больше — обрыв записи и ErrPayloadTooLarge.
	hasher := md5.New()
	tee := io.TeeReader(io.LimitReader(reader, bs.maxFileSize+1), hasher)

	size, err := io.Copy(f, tee)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if size > bs.maxFileSize {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: лимит %d байт", ErrPayloadTooLarge, bs.maxFileSize)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StoredName:  storedName,
		Size:        size,
		Fingerprint: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open открывает блоб для чтения и возвращает *os.File.
// Вызывающий код обязан закрыть файл.
func (bs *BlobStore) Open(storedName string) (*os.File, error) {
	fullPath := filepath.Join(bs.uploadDir, filepath.Base(storedName))

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, storedName)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storedName, err)
	}

	return f, nil
}

// Delete удаляет блоб с диска.
// Возвращает nil если файл уже не существует.
func (bs *BlobStore) Delete(storedName string) error {
	fullPath := filepath.Join(bs.uploadDir, filepath.Base(storedName))

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storedName, err)
	}
	return nil
}

// Exists проверяет существование блоба на диске.
func (bs *BlobStore) Exists(storedName string) bool {
	_, err := os.Stat(filepath.Join(bs.uploadDir, filepath.Base(storedName)))
	return err == nil
}

// UploadDir возвращает путь к директории загрузок.
func (bs *BlobStore) UploadDir() string {
	return bs.uploadDir
}

// MaxFileSize возвращает лимит размера блоба в байтах.
func (bs *BlobStore) MaxFileSize() int64 {
	return bs.maxFileSize
}

// generateStoredName генерирует имя файла для хранения на диске.
// Формат: {timestamp}_{sanitized name}
// Пример: 20260828_151203_otchet_Q2.xlsx
func generateStoredName(originalName string) string {
	ts := time.Now().UTC().Format("20060102_150405")
	return ts + "_" + sanitize(filepath.Base(originalName))
}

// sanitize убирает небезопасные символы из имени файла.
// Оставляет буквы, цифры, точку, дефис и подчёркивание;
// остальное заменяется на подчёркивание. Гарантирует отсутствие
// path traversal в имени на диске.
func sanitize(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) { // Кириллица
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}
