package models

import "time"

// Priority values accepted for activities, highest first.
const (
	PriorityHigh   = "P-1"
	PriorityMedium = "P-2"
	PriorityLow    = "P-3"
)

// Activity status values with special meaning.
const (
	StatusStarted   = "Started"
	StatusCompleted = "Completed"
)

// Priorities lists the accepted priority values in display order.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// Activity is an engineering task tracked from creation to completion.
type Activity struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:200;not null" json:"name"`
	Priority         string         `gorm:"size:10;not null;default:P-3;index" json:"priority"`
	Status           string         `gorm:"size:50;not null;default:Started;index" json:"status"`
	CostCenter       string         `gorm:"size:100;not null" json:"cost_center"`
	Responsible      string         `gorm:"size:150;not null" json:"responsible"`
	OrderRef         *string        `gorm:"size:100" json:"order_ref"`
	DeliveryLocation *string        `gorm:"size:200" json:"delivery_location"`
	Requester        *string        `gorm:"size:150" json:"requester"`
	Destination      *string        `gorm:"size:200" json:"destination"`
	Notes            *string        `gorm:"type:text" json:"notes"`
	Attachment       *string        `gorm:"size:100" json:"attachment"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	History          []HistoryEntry `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

// IsCompleted reports whether the activity reached the terminal status.
func (a Activity) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// HistoryEntry records one field change on one activity. Rows are insert-only.
type HistoryEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index" json:"activity_id"`
	ModifiedAt time.Time `gorm:"not null;index" json:"modified_at"`
	Field      string    `gorm:"size:100;not null" json:"field"`
	OldValue   *string   `gorm:"type:text" json:"old_value"`
	NewValue   *string   `gorm:"type:text" json:"new_value"`
	ModifiedBy string    `gorm:"size:150;not null" json:"modified_by"`
}
