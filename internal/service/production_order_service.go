package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/observability"
	"github.com/noah-isme/engtrack/internal/repository"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

var (
	// ErrOrderNotFound indicates the production order does not exist.
	ErrOrderNotFound = errors.New("production order not found")
	// ErrInvalidOrderDate indicates a date field that is not in YYYY-MM-DD form.
	ErrInvalidOrderDate = errors.New("invalid order date")
)

const orderDateLayout = "2006-01-02"

// ProductionOrderUploads carries the optional files of the order form.
type ProductionOrderUploads struct {
	Image *Upload
	File  *Upload
}

// ProductionOrderService manages production orders.
type ProductionOrderService interface {
	Create(ctx context.Context, actor Actor, req dto.ProductionOrderRequest, uploads ProductionOrderUploads) (dto.ProductionOrderCreateResult, error)
	Get(ctx context.Context, id uint) (models.ProductionOrder, error)
	List(ctx context.Context) ([]models.ProductionOrder, error)
	Recent(ctx context.Context, limit int) ([]models.ProductionOrder, error)
}

type productionOrderService struct {
	repo      repository.ProductionOrderRepository
	files     AttachmentStore
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProductionOrderService constructs the production order service.
func NewProductionOrderService(repo repository.ProductionOrderRepository, files AttachmentStore, validate *validator.Validate, logger zerolog.Logger) ProductionOrderService {
	return &productionOrderService{
		repo:      repo,
		files:     files,
		validator: validate,
		logger:    logger.With().Str("component", "production_order_service").Logger(),
	}
}

func (s *productionOrderService) Create(ctx context.Context, actor Actor, req dto.ProductionOrderRequest, uploads ProductionOrderUploads) (dto.ProductionOrderCreateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProductionOrderCreateResult{}, err
	}

	endDate, err := parseOrderDate(req.ProductionEndDate)
	if err != nil {
		return dto.ProductionOrderCreateResult{}, err
	}
	deliveryDate, err := parseOrderDate(req.ExpectedDeliveryDate)
	if err != nil {
		return dto.ProductionOrderCreateResult{}, err
	}

	order := models.ProductionOrder{
		Name:                 strings.TrimSpace(req.Name),
		OrderRef:             optional(req.OrderRef),
		ProductionEndDate:    endDate,
		ExpectedDeliveryDate: deliveryDate,
		CostCenter:           optional(req.CostCenter),
		Requester:            optional(req.Requester),
		Destination:          optional(req.Destination),
		Notes:                optional(req.Notes),
		CreatedBy:            actor.DisplayName(),
	}

	result := dto.ProductionOrderCreateResult{}
	var stored []string

	image, err := s.store(ctx, PrefixOrderImage, uploads.Image)
	if err != nil {
		return dto.ProductionOrderCreateResult{}, err
	}
	switch {
	case image != "":
		order.ImageAttachment = &image
		stored = append(stored, image)
	case uploads.Image.present():
		result.IgnoredUploads = append(result.IgnoredUploads, uploads.Image.Filename)
	}

	file, err := s.store(ctx, PrefixOrderFile, uploads.File)
	if err != nil {
		s.discard(ctx, stored)
		return dto.ProductionOrderCreateResult{}, err
	}
	switch {
	case file != "":
		order.FileAttachment = &file
		stored = append(stored, file)
	case uploads.File.present():
		result.IgnoredUploads = append(result.IgnoredUploads, uploads.File.Filename)
	}

	if err := s.repo.Create(ctx, &order); err != nil {
		s.discard(ctx, stored)
		return dto.ProductionOrderCreateResult{}, fmt.Errorf("failed to create production order: %w", err)
	}

	s.logger.Info().Uint("order_id", order.ID).Str("actor", actor.Login).Msg("production order created")
	result.ID = order.ID
	return result, nil
}

func (s *productionOrderService) Get(ctx context.Context, id uint) (models.ProductionOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProductionOrder{}, ErrOrderNotFound
		}
		return models.ProductionOrder{}, err
	}
	return order, nil
}

func (s *productionOrderService) List(ctx context.Context) ([]models.ProductionOrder, error) {
	return s.repo.List(ctx)
}

func (s *productionOrderService) Recent(ctx context.Context, limit int) ([]models.ProductionOrder, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.ListRecent(ctx, limit)
}

// store returns an empty name when no file was sent or its extension is not accepted.
func (s *productionOrderService) store(ctx context.Context, prefix string, upload *Upload) (string, error) {
	if !upload.present() {
		return "", nil
	}

	category := string(filestore.CategoryOrders)
	name, err := s.files.Store(ctx, filestore.CategoryOrders, prefix, upload.Filename, upload.Body)
	if err != nil {
		if errors.Is(err, filestore.ErrExtensionNotAllowed) {
			observability.Attachments().WithLabelValues(category, "rejected").Inc()
			return "", nil
		}
		observability.Attachments().WithLabelValues(category, "failed").Inc()
		return "", fmt.Errorf("failed to store attachment: %w", err)
	}

	observability.Attachments().WithLabelValues(category, "stored").Inc()
	return name, nil
}

func (s *productionOrderService) discard(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.files.Delete(ctx, filestore.CategoryOrders, name); err != nil {
			s.logger.Warn().Err(err).Str("stored_name", name).Msg("failed to remove orphaned attachment")
		}
	}
}

func parseOrderDate(value string) (*datatypes.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(orderDateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidOrderDate, value, err)
	}
	date := datatypes.Date(parsed)
	return &date, nil
}
