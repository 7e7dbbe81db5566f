// Пакет model — доменные модели FinDocs.
// FileRecord — единая структура метаданных загруженного файла,
// используется как in-memory представление и как формат записи
// в JSON-документе хранилища.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// FileCategory — категория файла, выводится из расширения.
type FileCategory string

const (
	// CategorySpreadsheet — табличные файлы (.xlsx, .xls, .csv)
	CategorySpreadsheet FileCategory = "spreadsheet"
	// CategoryOFX — банковские выписки Open Financial Exchange (.ofx)
	CategoryOFX FileCategory = "ofx"
	// CategoryPDF — PDF-документы (.pdf)
	CategoryPDF FileCategory = "pdf"
	// CategoryUnknown — расширение вне allow-list
	CategoryUnknown FileCategory = "unknown"
)

// StatusUploaded — единственный статус жизненного цикла файла.
// Конвейера обработки в системе нет, статус фиксируется при создании.
const StatusUploaded = "uploaded"

// allowedExtensions — allow-list расширений и соответствующие категории.
var allowedExtensions = map[string]FileCategory{
	".xlsx": CategorySpreadsheet,
	".xls":  CategorySpreadsheet,
	".csv":  CategorySpreadsheet,
	".ofx":  CategoryOFX,
	".pdf":  CategoryPDF,
}

// CategoryForFilename возвращает категорию файла по расширению имени.
// Расширение сравнивается без учёта регистра.
// Для расширений вне allow-list возвращает CategoryUnknown.
func CategoryForFilename(filename string) FileCategory {
	ext := strings.ToLower(filepath.Ext(filename))
	if cat, ok := allowedExtensions[ext]; ok {
		return cat
	}
	return CategoryUnknown
}

// FileRecord — метаданные загруженного файла.
// Поле StoredName связывает запись с физическим файлом в директории
// загрузок; OriginalName хранит имя, присланное клиентом, и
// используется только для отображения и заголовка скачивания.
type FileRecord struct {
	// ID — уникальный монотонно растущий идентификатор.
	// Никогда не переиспользуется, в том числе после удаления.
	ID int64 `json:"id"`

	// StoredName — имя файла на диске (относительно upload dir).
	// Формат: {timestamp}_{sanitized original name}
	StoredName string `json:"storedName"`

	// OriginalName — имя файла, присланное клиентом (как есть)
	OriginalName string `json:"originalName"`

	// Category — категория, выведенная из расширения
	Category FileCategory `json:"category"`

	// SizeBytes — размер содержимого в байтах
	SizeBytes int64 `json:"sizeBytes"`

	// ContentFingerprint — MD5-отпечаток содержимого.
	// Информационный: дубликаты разрешены, дедупликации нет.
	ContentFingerprint string `json:"contentFingerprint"`

	// Note — опциональная заметка, указанная при загрузке
	Note string `json:"note,omitempty"`

	// UploadedAt — дата и время загрузки (UTC), неизменяемое
	UploadedAt time.Time `json:"uploadedAt"`

	// Status — всегда "uploaded"
	Status string `json:"status"`
}

// Stats — агрегированная статистика по хранилищу.
type Stats struct {
	// TotalFiles — общее количество записей
	TotalFiles int `json:"totalFiles"`
	// TotalSize — суммарный размер файлов в байтах
	TotalSize int64 `json:"totalSize"`
	// ByType — количество файлов по категориям
	ByType map[FileCategory]int `json:"byType"`
}
