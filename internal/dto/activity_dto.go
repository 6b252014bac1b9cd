package dto

import (
	"time"

	"github.com/noah-isme/engtrack/internal/models"
)

// ActivityCreateRequest captures the new-activity form.
type ActivityCreateRequest struct {
	Name             string `form:"name" validate:"required,max=200"`
	Priority         string `form:"priority" validate:"omitempty,oneof=P-1 P-2 P-3"`
	CostCenter       string `form:"cost_center" validate:"required,max=100"`
	Notes            string `form:"notes"`
	OrderRef         string `form:"order_ref" validate:"max=100"`
	DeliveryLocation string `form:"delivery_location" validate:"max=200"`
	Requester        string `form:"requester" validate:"max=150"`
	Destination      string `form:"destination" validate:"max=200"`
}

// ActivityUpdateRequest captures the edit form. Nil means the field was absent.
type ActivityUpdateRequest struct {
	Name             *string
	Priority         *string
	CostCenter       *string
	Status           *string
	Notes            *string
	OrderRef         *string
	DeliveryLocation *string
	Requester        *string
	Destination      *string
}

// ActivityCreateResult reports the outcome of a creation.
type ActivityCreateResult struct {
	ID                uint
	AttachmentIgnored bool
}

// ActivityUpdateResult reports how many tracked fields changed on an edit.
type ActivityUpdateResult struct {
	Changed           int
	AttachmentIgnored bool
}

// NoChanges reports whether the edit was a no-op.
func (r ActivityUpdateResult) NoChanges() bool {
	return r.Changed == 0
}

// ActivityBoard groups activities for the list page.
type ActivityBoard struct {
	InProgress []models.Activity
	Completed  []models.Activity
}

// ActivityChangeEvent is published after an activity mutation commits.
type ActivityChangeEvent struct {
	Type       string               `json:"type"`
	ActivityID uint                 `json:"activity_id"`
	Name       string               `json:"name"`
	Actor      string               `json:"actor"`
	OccurredAt time.Time            `json:"occurred_at"`
	Changes    []ActivityFieldDelta `json:"changes,omitempty"`
}

// ActivityFieldDelta describes one field change inside an event.
type ActivityFieldDelta struct {
	Field string  `json:"field"`
	Old   *string `json:"old"`
	New   *string `json:"new"`
}

// Activity change event types.
const (
	ActivityEventCreated = "activity.created"
	ActivityEventUpdated = "activity.updated"
	ActivityEventDeleted = "activity.deleted"
)
