package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

// ActivityRepository persists activities together with their change history.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity, history func(activityID uint) []models.HistoryEntry) error
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	ListOpen(ctx context.Context) ([]models.Activity, error)
	ListCompleted(ctx context.Context) ([]models.Activity, error)
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
	ListHistory(ctx context.Context, activityID uint) ([]models.HistoryEntry, error)
	UpdateWithHistory(ctx context.Context, activity *models.Activity, entries []models.HistoryEntry) error
	Delete(ctx context.Context, id uint) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create inserts the activity and the history rows built for its new id in one transaction.
func (r *activityRepository) Create(ctx context.Context, activity *models.Activity, history func(activityID uint) []models.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("History").Create(activity).Error; err != nil {
			return err
		}
		if history == nil {
			return nil
		}
		entries := history(activity.ID)
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("modified_at DESC").Order("id DESC")
		}).
		First(&activity, id).Error
	return activity, err
}

func (r *activityRepository) ListOpen(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("status <> ?", models.StatusCompleted).
		Order("priority ASC").
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) ListCompleted(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusCompleted).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var activities []models.Activity
	err := query.Find(&activities).Error
	return activities, err
}

func (r *activityRepository) ListHistory(ctx context.Context, activityID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("modified_at DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// UpdateWithHistory saves the mutated activity and appends the history rows atomically.
// Either both are visible afterwards or neither is.
func (r *activityRepository) UpdateWithHistory(ctx context.Context, activity *models.Activity, entries []models.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(activity).
			Select("*").
			Omit("id", "created_at", "History").
			Updates(activity)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

// Delete removes the activity's history rows and then the activity inside one transaction.
func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&models.HistoryEntry{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
