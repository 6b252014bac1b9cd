package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/repository"
)

func setupProductionOrderService(t *testing.T) (ProductionOrderService, string) {
	t.Helper()
	store, root := setupFileStore(t)
	repo := repository.NewProductionOrderRepository(setupServiceDB(t))
	return NewProductionOrderService(repo, store, testValidator(), testLogger()), root
}

func TestProductionOrderServiceCreateWithAttachments(t *testing.T) {
	svc, root := setupProductionOrderService(t)
	ctx := context.Background()

	req := dto.ProductionOrderRequest{
		Name:                 "Frame batch",
		OrderRef:             "PO-778",
		ExpectedDeliveryDate: "2024-07-15",
		Notes:                "Deliver to dock 2",
	}
	uploads := ProductionOrderUploads{
		Image: &Upload{Filename: "frame.jpg", Body: strings.NewReader("jpeg")},
		File:  &Upload{Filename: "drawing.docx", Body: strings.NewReader("docx")},
	}

	result, err := svc.Create(ctx, ana, req, uploads)
	require.NoError(t, err)
	require.Empty(t, result.IgnoredUploads)

	order, err := svc.Get(ctx, result.ID)
	require.NoError(t, err)
	require.Equal(t, "Frame batch", order.Name)
	require.Equal(t, "Ana Lima", order.CreatedBy)
	require.Nil(t, order.ProductionEndDate)
	require.Nil(t, order.CostCenter)
	require.Equal(t, "2024-07-15", time.Time(*order.ExpectedDeliveryDate).Format("2006-01-02"))
	require.True(t, strings.HasPrefix(*order.ImageAttachment, "img_"))
	require.True(t, strings.HasPrefix(*order.FileAttachment, "file_"))

	_, err = os.Stat(filepath.Join(root, "orders", *order.ImageAttachment))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "orders", *order.FileAttachment))
	require.NoError(t, err)
}

func TestProductionOrderServiceIgnoresDisallowedUploads(t *testing.T) {
	svc, _ := setupProductionOrderService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, bruno, dto.ProductionOrderRequest{Name: "Shafts"}, ProductionOrderUploads{
		Image: &Upload{Filename: "photo.bmp", Body: strings.NewReader("bmp")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"photo.bmp"}, result.IgnoredUploads)

	order, err := svc.Get(ctx, result.ID)
	require.NoError(t, err)
	require.Nil(t, order.ImageAttachment)
	require.Nil(t, order.FileAttachment)
}

func TestProductionOrderServiceValidation(t *testing.T) {
	svc, _ := setupProductionOrderService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ana, dto.ProductionOrderRequest{}, ProductionOrderUploads{})
	require.Error(t, err)

	_, err = svc.Create(ctx, ana, dto.ProductionOrderRequest{Name: "x", ProductionEndDate: "15/07/2024"}, ProductionOrderUploads{})
	require.Error(t, err)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, orders)

	_, err = svc.Get(ctx, 99)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestProductionOrderServiceRecent(t *testing.T) {
	svc, _ := setupProductionOrderService(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := svc.Create(ctx, ana, dto.ProductionOrderRequest{Name: name}, ProductionOrderUploads{})
		require.NoError(t, err)
	}

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
}
