package dto

import "time"

// PaginationMeta describes a page of a larger result.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HistoryFeedRequest selects a page of the change history.
type HistoryFeedRequest struct {
	Page       int
	PageSize   int
	ActivityID *uint
	Field      string
	ModifiedBy string
}

// HistoryFeedItem is one history row in the feed.
type HistoryFeedItem struct {
	ID         uint      `json:"id"`
	ActivityID uint      `json:"activity_id"`
	Field      string    `json:"field"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	ModifiedBy string    `json:"modified_by"`
	ModifiedAt time.Time `json:"modified_at"`
}

// HistoryFeedResponse is a page of history rows.
type HistoryFeedResponse struct {
	Items      []HistoryFeedItem `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}
