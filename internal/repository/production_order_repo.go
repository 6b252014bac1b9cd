package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

// ProductionOrderRepository persists production orders.
type ProductionOrderRepository interface {
	Create(ctx context.Context, order *models.ProductionOrder) error
	GetByID(ctx context.Context, id uint) (models.ProductionOrder, error)
	List(ctx context.Context) ([]models.ProductionOrder, error)
	ListRecent(ctx context.Context, limit int) ([]models.ProductionOrder, error)
}

type productionOrderRepository struct {
	db *gorm.DB
}

// NewProductionOrderRepository constructs the production order repository.
func NewProductionOrderRepository(db *gorm.DB) ProductionOrderRepository {
	return &productionOrderRepository{db: db}
}

func (r *productionOrderRepository) Create(ctx context.Context, order *models.ProductionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *productionOrderRepository) GetByID(ctx context.Context, id uint) (models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	return order, err
}

func (r *productionOrderRepository) List(ctx context.Context) ([]models.ProductionOrder, error) {
	return r.ListRecent(ctx, 0)
}

func (r *productionOrderRepository) ListRecent(ctx context.Context, limit int) ([]models.ProductionOrder, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.ProductionOrder
	err := query.Find(&orders).Error
	return orders, err
}
