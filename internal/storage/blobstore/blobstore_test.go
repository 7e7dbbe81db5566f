package blobstore

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testMaxSize = 1 << 20 // 1 MiB

func newTestStore(t *testing.T) *BlobStore {
	t.Helper()
	bs, err := New(t.TempDir(), testMaxSize)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}
	return bs
}

// TestNew_CreatesDirectory проверяет создание директории загрузок.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	bs, err := New(dir, testMaxSize)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}
	if bs.UploadDir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, bs.UploadDir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestSave_RoundTrip: сохранённый блоб читается байт-в-байт,
// отпечаток совпадает с MD5 прочитанного содержимого.
func TestSave_RoundTrip(t *testing.T) {
	bs := newTestStore(t)

	content := []byte("дата;сумма\n2026-08-01;1500.00\n")
	result, err := bs.Save(bytes.NewReader(content), "выписка.csv")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}

	f, err := bs.Open(result.StoredName)
	if err != nil {
		t.Fatalf("ошибка открытия блоба: %v", err)
	}
	defer f.Close()

	readBack, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения блоба: %v", err)
	}
	if !bytes.Equal(readBack, content) {
		t.Error("содержимое блоба не совпадает с исходным")
	}

	recomputed := md5.Sum(readBack)
	if result.Fingerprint != hex.EncodeToString(recomputed[:]) {
		t.Errorf("отпечаток: ожидалось %s, получено %s",
			hex.EncodeToString(recomputed[:]), result.Fingerprint)
	}
}

// TestSave_StoredNameFormat проверяет формат имени {timestamp}_{name}.
func TestSave_StoredNameFormat(t *testing.T) {
	bs := newTestStore(t)

	result, err := bs.Save(bytes.NewReader([]byte("data")), "report Q2.xlsx")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	// 15 символов timestamp (20060102_150405) + подчёркивание
	if len(result.StoredName) < 17 || result.StoredName[15] != '_' {
		t.Errorf("некорректный формат имени: %s", result.StoredName)
	}
	// Пробел заменён на подчёркивание
	if !strings.HasSuffix(result.StoredName, "_report_Q2.xlsx") {
		t.Errorf("имя должно содержать санитизированный оригинал: %s", result.StoredName)
	}
}

// TestSave_UnsupportedExtension: расширение вне allow-list отклоняется
// до записи байтов.
func TestSave_UnsupportedExtension(t *testing.T) {
	bs := newTestStore(t)

	_, err := bs.Save(bytes.NewReader([]byte("MZ")), "malware.exe")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("ожидался ErrUnsupportedType, получено %v", err)
	}

	// Директория осталась пустой: байты не записывались
	entries, err := os.ReadDir(bs.UploadDir())
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("директория должна быть пустой, найдено %d файлов", len(entries))
	}
}

// TestSave_PathTraversal: имя с path traversal не выходит за пределы
// директории загрузок.
func TestSave_PathTraversal(t *testing.T) {
	bs := newTestStore(t)

	result, err := bs.Save(bytes.NewReader([]byte("root:x:0:0")), "../../etc/passwd.csv")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if strings.Contains(result.StoredName, "/") || strings.Contains(result.StoredName, "..") {
		t.Errorf("имя на диске содержит traversal: %s", result.StoredName)
	}

	// Блоб лежит внутри директории загрузок
	if _, err := os.Stat(filepath.Join(bs.UploadDir(), result.StoredName)); err != nil {
		t.Errorf("блоб не найден в директории загрузок: %v", err)
	}
}

// TestSave_TooLarge: превышение лимита — ErrPayloadTooLarge,
// temp файл не остаётся.
func TestSave_TooLarge(t *testing.T) {
	bs, err := New(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	_, err = bs.Save(bytes.NewReader(bytes.Repeat([]byte("a"), 11)), "big.csv")
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("ожидался ErrPayloadTooLarge, получено %v", err)
	}

	entries, err := os.ReadDir(bs.UploadDir())
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("после отказа директория должна быть пустой, найдено %d файлов", len(entries))
	}
}

// TestSave_ExactLimit: размер ровно в лимит допустим.
func TestSave_ExactLimit(t *testing.T) {
	bs, err := New(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	result, err := bs.Save(bytes.NewReader(bytes.Repeat([]byte("a"), 10)), "fits.csv")
	if err != nil {
		t.Fatalf("файл ровно в лимит должен сохраняться: %v", err)
	}
	if result.Size != 10 {
		t.Errorf("размер: ожидалось 10, получено %d", result.Size)
	}
}

// TestOpen_NotFound: отсутствующий блоб — ErrBlobNotFound.
func TestOpen_NotFound(t *testing.T) {
	bs := newTestStore(t)

	if _, err := bs.Open("нет_такого.csv"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("ожидался ErrBlobNotFound, получено %v", err)
	}
}

// TestDelete_Idempotent: удаление отсутствующего блоба — no-op.
func TestDelete_Idempotent(t *testing.T) {
	bs := newTestStore(t)

	result, err := bs.Save(bytes.NewReader([]byte("data")), "doc.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := bs.Delete(result.StoredName); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if bs.Exists(result.StoredName) {
		t.Error("блоб должен быть удалён")
	}

	// Повторное удаление — не ошибка
	if err := bs.Delete(result.StoredName); err != nil {
		t.Errorf("повторное удаление должно быть no-op: %v", err)
	}
}

// TestSanitize проверяет санитизацию имён файлов.
func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.csv", "report.csv"},
		{"отчёт за Q2.xlsx", "отчёт_за_Q2.xlsx"},
		{"a b/c\\d.pdf", "a_b_c_d.pdf"},
		{"", "file"},
		{"###", "___"},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q): ожидалось %q, получено %q", tt.in, tt.want, got)
		}
	}
}
