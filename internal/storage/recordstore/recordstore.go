// Пакет recordstore — персистентное хранилище метаданных файлов.
//
// Хранилище whole-document: весь список записей и счётчик nextId
// сериализуются в один JSON-документ фиксированного пути
// {"files": [...], "nextId": N}. Каждая мутация перезаписывает
// документ целиком атомарно: temp файл → fsync → rename.
//
// Все мутации сериализуются через один мьютекс — lost-update
// гонка двух конкурентных записей исключена в рамках процесса.
package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/findocs/internal/domain/model"
)

// ErrCorruptStore — персистентный документ не распарсился.
// Политика восстановления вызывающего кода — сброс к пустому
// состоянию, а не падение процесса.
var ErrCorruptStore = errors.New("хранилище метаданных повреждено")

// ErrRecordNotFound — запись с указанным id отсутствует.
// Штатный результат ("нечего удалять"), а не сбой.
var ErrRecordNotFound = errors.New("запись не найдена")

// storeState — персистентное состояние хранилища.
// Формат JSON-документа на диске.
type storeState struct {
	Files  []model.FileRecord `json:"files"`
	NextID int64              `json:"nextId"`
}

// Store — whole-document хранилище записей FileRecord.
// sync.RWMutex сериализует все мутации через одного писателя,
// чтения конкурентны.
type Store struct {
	// path — фиксированный путь JSON-документа
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	state storeState
}

// Open загружает хранилище из path. Отсутствующий файл — штатное
// пустое состояние (nextId = 1). Невалидный JSON — повреждение:
// логируется предупреждение и состояние сбрасывается к пустому
// (осознанный выбор доступности в ущерб сохранности данных).
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.With(slog.String("component", "recordstore")),
	}

	state, err := load(path)
	if err != nil {
		if errors.Is(err, ErrCorruptStore) {
			s.logger.Warn("Документ хранилища повреждён, сброс к пустому состоянию",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			state = storeState{NextID: 1}
		} else {
			return nil, err
		}
	}

	s.state = state
	return s, nil
}

// load читает и парсит JSON-документ хранилища.
// Отсутствие файла — пустое состояние, не ошибка.
func load(path string) (storeState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return storeState{NextID: 1}, nil
		}
		return storeState{}, fmt.Errorf("ошибка чтения документа %s: %w", path, err)
	}

	var state storeState
	if err := json.Unmarshal(data, &state); err != nil {
		return storeState{}, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	if state.NextID < 1 {
		state.NextID = 1
	}
	return state, nil
}

// Append присваивает записи id = nextId, инкрементирует счётчик,
// проставляет uploadedAt (UTC) и status, дописывает запись в конец
// и атомарно персистирует всё состояние. Возвращает готовую запись.
func (s *Store) Append(partial model.FileRecord) (model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := partial
	rec.ID = s.state.NextID
	rec.UploadedAt = time.Now().UTC()
	rec.Status = model.StatusUploaded

	next := storeState{
		Files:  append(append([]model.FileRecord{}, s.state.Files...), rec),
		NextID: s.state.NextID + 1,
	}

	if err := s.persist(next); err != nil {
		return model.FileRecord{}, err
	}

	s.state = next
	return rec, nil
}

// ListAll возвращает все записи, отсортированные по uploadedAt
// по убыванию (новые первые). При равных отметках времени порядок
// вставки сохраняется (стабильная сортировка).
func (s *Store) ListAll() []model.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FileRecord, len(s.state.Files))
	copy(out, s.state.Files)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})

	return out
}

// FindByID возвращает запись по id или ErrRecordNotFound.
func (s *Store) FindByID(id int64) (model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.state.Files {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.FileRecord{}, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
}

// Remove удаляет первую запись с указанным id, персистирует новое
// состояние и возвращает удалённую запись. Отсутствие записи —
// штатный результат ErrRecordNotFound, не сбой.
func (s *Store) Remove(id int64) (model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := -1
	for i, rec := range s.state.Files {
		if rec.ID == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return model.FileRecord{}, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}

	removed := s.state.Files[pos]

	files := make([]model.FileRecord, 0, len(s.state.Files)-1)
	files = append(files, s.state.Files[:pos]...)
	files = append(files, s.state.Files[pos+1:]...)

	next := storeState{Files: files, NextID: s.state.NextID}
	if err := s.persist(next); err != nil {
		return model.FileRecord{}, err
	}

	s.state = next
	return removed, nil
}

// Aggregate возвращает агрегированную статистику: количество записей,
// суммарный размер и количество по категориям. Чистая проекция.
func (s *Store) Aggregate() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.Stats{
		ByType: make(map[model.FileCategory]int),
	}
	for _, rec := range s.state.Files {
		stats.TotalFiles++
		stats.TotalSize += rec.SizeBytes
		stats.ByType[rec.Category]++
	}
	return stats
}

// Contains сообщает, ссылается ли какая-либо запись на storedName.
// Используется orphan sweep для поиска блобов без записей.
func (s *Store) Contains(storedName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.state.Files {
		if rec.StoredName == storedName {
			return true
		}
	}
	return false
}

// Path возвращает путь документа хранилища.
func (s *Store) Path() string {
	return s.path
}

// persist атомарно записывает состояние на диск.
// Паттерн: JSON → temp файл → fsync → atomic rename.
func (s *Store) persist(state storeState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации состояния: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	tmpPath := s.path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}
