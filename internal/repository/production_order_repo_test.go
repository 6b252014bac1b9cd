package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

func TestProductionOrderRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductionOrderRepository(db)
	ctx := context.Background()

	delivery := datatypes.Date(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	order := models.ProductionOrder{
		Name:                 "Frame batch",
		OrderRef:             strPtr("PO-778"),
		ExpectedDeliveryDate: &delivery,
		ImageAttachment:      strPtr("img_1.png"),
		CreatedBy:            "Ana",
	}
	require.NoError(t, repo.Create(ctx, &order))
	require.NotZero(t, order.ID)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "Frame batch", stored.Name)
	require.Equal(t, "PO-778", *stored.OrderRef)
	require.Nil(t, stored.ProductionEndDate)
	require.NotNil(t, stored.ExpectedDeliveryDate)
	require.Equal(t, "2024-07-15", time.Time(*stored.ExpectedDeliveryDate).Format("2006-01-02"))

	_, err = repo.GetByID(ctx, order.ID+10)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductionOrderRepositoryListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductionOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	for i, name := range []string{"first", "second", "third"} {
		order := models.ProductionOrder{Name: name, CreatedBy: "Ana", CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, &order))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].Name)

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "second", recent[1].Name)
}
