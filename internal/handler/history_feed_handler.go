package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/service"
	"github.com/noah-isme/engtrack/internal/utils"
)

// HistoryFeedHandler serves the JSON change history feed.
type HistoryFeedHandler struct {
	service service.HistoryFeedService
	logger  zerolog.Logger
}

// NewHistoryFeedHandler constructs the handler instance.
func NewHistoryFeedHandler(service service.HistoryFeedService, logger zerolog.Logger) *HistoryFeedHandler {
	return &HistoryFeedHandler{
		service: service,
		logger:  logger.With().Str("component", "history_feed_handler").Logger(),
	}
}

// Register wires the history feed route.
func (h *HistoryFeedHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *HistoryFeedHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.HistoryFeedRequest{
		Page:       page,
		PageSize:   pageSize,
		Field:      c.Query("field"),
		ModifiedBy: c.Query("modifiedBy"),
	}
	if v := c.Query("activityId"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
		}
		id := uint(parsed)
		req.ActivityID = &id
	}

	result, err := h.service.List(c.UserContext(), req)
	if errors.Is(err, service.ErrHistoryPageOutOfRange) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if err != nil {
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Msg("failed to fetch history feed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch history")
	}

	return utils.SendSuccess(c, "history retrieved", result)
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
