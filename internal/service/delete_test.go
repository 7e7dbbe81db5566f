package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// TestDelete_RemovesRecordAndBlob: удаление убирает и запись, и блоб.
func TestDelete_RemovesRecordAndBlob(t *testing.T) {
	blobs, records := newTestStores(t)
	uploadSvc := NewUploadService(blobs, records, testLogger())
	deleteSvc := NewDeleteService(blobs, records, testLogger())

	result := uploadSvc.UploadBatch([]UploadItem{
		{Reader: bytes.NewReader([]byte("a;b")), OriginalName: "ops.csv"},
	}, "")
	if len(result.Uploaded) != 1 {
		t.Fatalf("подготовка: ожидался 1 успех, получено %d", len(result.Uploaded))
	}
	rec := result.Uploaded[0]

	removed, err := deleteSvc.Delete(rec.ID)
	if err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if removed.OriginalName != "ops.csv" {
		t.Errorf("удалена не та запись: %s", removed.OriginalName)
	}

	if _, err := records.FindByID(rec.ID); !errors.Is(err, recordstore.ErrRecordNotFound) {
		t.Errorf("запись должна отсутствовать после удаления, ошибка: %v", err)
	}
	if blobs.Exists(rec.StoredName) {
		t.Errorf("блоб %s должен быть удалён с диска", rec.StoredName)
	}
}

// TestDelete_UnknownID: неизвестный идентификатор — ErrRecordNotFound.
func TestDelete_UnknownID(t *testing.T) {
	blobs, records := newTestStores(t)
	deleteSvc := NewDeleteService(blobs, records, testLogger())

	if _, err := deleteSvc.Delete(9999); !errors.Is(err, recordstore.ErrRecordNotFound) {
		t.Errorf("ожидалась ErrRecordNotFound, получено %v", err)
	}
}

// TestDelete_BlobAlreadyGone: запись есть, блоба на диске нет —
// удаление всё равно успешно, запись убирается.
func TestDelete_BlobAlreadyGone(t *testing.T) {
	blobs, records := newTestStores(t)
	uploadSvc := NewUploadService(blobs, records, testLogger())
	deleteSvc := NewDeleteService(blobs, records, testLogger())

	result := uploadSvc.UploadBatch([]UploadItem{
		{Reader: bytes.NewReader([]byte("%PDF-1.4")), OriginalName: "act.pdf"},
	}, "")
	rec := result.Uploaded[0]

	// Блоб пропал вне сервиса (ручное вмешательство на диске)
	if err := blobs.Delete(rec.StoredName); err != nil {
		t.Fatalf("подготовка: %v", err)
	}

	if _, err := deleteSvc.Delete(rec.ID); err != nil {
		t.Fatalf("удаление при отсутствующем блобе должно быть успешным: %v", err)
	}
	if _, err := records.FindByID(rec.ID); !errors.Is(err, recordstore.ErrRecordNotFound) {
		t.Errorf("запись должна отсутствовать, ошибка: %v", err)
	}
}
