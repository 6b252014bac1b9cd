package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

// HistoryFilter narrows history feed queries.
type HistoryFilter struct {
	Page       int
	PageSize   int
	ActivityID *uint
	Field      string
	ModifiedBy string
}

// HistoryRepository reads the change history across all activities.
type HistoryRepository interface {
	List(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository constructs the history repository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) List(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.HistoryEntry{})

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}

	if filter.Field != "" {
		query = query.Where("field = ?", filter.Field)
	}

	if filter.ModifiedBy != "" {
		query = query.Where("modified_by = ?", filter.ModifiedBy)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.HistoryEntry
	if err := query.Order("modified_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
