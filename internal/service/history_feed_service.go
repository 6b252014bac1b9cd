package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/observability"
	"github.com/noah-isme/engtrack/internal/repository"
)

// MaxHistoryPage bounds the requested page so the row offset stays representable.
const MaxHistoryPage = 100000

// ErrHistoryPageOutOfRange indicates a page beyond MaxHistoryPage.
var ErrHistoryPageOutOfRange = errors.New("history page out of range")

// HistoryFeedService pages through the change history of all activities.
type HistoryFeedService interface {
	List(ctx context.Context, req dto.HistoryFeedRequest) (dto.HistoryFeedResponse, error)
}

type historyFeedService struct {
	repo   repository.HistoryRepository
	logger zerolog.Logger
}

// NewHistoryFeedService builds the history feed.
func NewHistoryFeedService(repo repository.HistoryRepository, logger zerolog.Logger) HistoryFeedService {
	return &historyFeedService{
		repo:   repo,
		logger: logger.With().Str("component", "history_feed_service").Logger(),
	}
}

func (s *historyFeedService) List(ctx context.Context, req dto.HistoryFeedRequest) (dto.HistoryFeedResponse, error) {
	if req.Page > MaxHistoryPage {
		return dto.HistoryFeedResponse{}, ErrHistoryPageOutOfRange
	}

	start := time.Now()
	defer func() {
		observability.HistoryFeedLatency().Observe(time.Since(start).Seconds())
	}()

	filter := repository.HistoryFilter{
		Page:       maxInt(req.Page, 1),
		PageSize:   clampPageSize(req.PageSize),
		ActivityID: req.ActivityID,
		Field:      strings.TrimSpace(req.Field),
		ModifiedBy: strings.TrimSpace(req.ModifiedBy),
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		observability.HistoryFeedRequests().WithLabelValues("error").Inc()
		return dto.HistoryFeedResponse{}, err
	}

	items := make([]dto.HistoryFeedItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryFeedItem{
			ID:         entry.ID,
			ActivityID: entry.ActivityID,
			Field:      entry.Field,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			ModifiedBy: entry.ModifiedBy,
			ModifiedAt: entry.ModifiedAt,
		})
	}

	observability.HistoryFeedRequests().WithLabelValues("ok").Inc()
	return dto.HistoryFeedResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
		},
	}, nil
}

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
