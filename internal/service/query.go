// query.go — read-only проекции над хранилищем метаданных.
// Без кэширования и без мутаций.
package service

import (
	"github.com/bigkaa/findocs/internal/domain/model"
	"github.com/bigkaa/findocs/internal/storage/recordstore"
)

// QueryService — read-only слой над хранилищем записей.
type QueryService struct {
	records *recordstore.Store
}

// NewQueryService создаёт read-only сервис.
func NewQueryService(records *recordstore.Store) *QueryService {
	return &QueryService{records: records}
}

// ListAll возвращает все записи, новые первые.
func (s *QueryService) ListAll() []model.FileRecord {
	return s.records.ListAll()
}

// Stats возвращает агрегированную статистику по хранилищу.
func (s *QueryService) Stats() model.Stats {
	return s.records.Aggregate()
}

// FindByID возвращает запись по id или recordstore.ErrRecordNotFound.
func (s *QueryService) FindByID(id int64) (model.FileRecord, error) {
	return s.records.FindByID(id)
}
