// Package audit computes field-level changes on activities and turns them into history rows.
package audit

import (
	"fmt"
	"time"

	"github.com/noah-isme/engtrack/internal/models"
)

// Labels of the pseudo-fields that are not part of the tracked table.
const (
	FieldCreation   = "Creation"
	FieldAttachment = "Attachment"
)

// Values holds the submitted state of an activity edit form. A nil pointer means the
// field was not submitted.
type Values struct {
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

// Field binds one tracked activity attribute to its label and accessors.
type Field struct {
	Key       string
	Label     string
	Current   func(a *models.Activity) *string
	Submitted func(v Values) *string
	Apply     func(a *models.Activity, value *string)
}

// Fields is the tracked field table. Declaration order is evaluation order, which fixes
// the insertion order of history rows sharing a timestamp.
var Fields = []Field{
	{
		Key:       "name",
		Label:     "Activity name",
		Current:   func(a *models.Activity) *string { return &a.Name },
		Submitted: func(v Values) *string { return v.Name },
		Apply:     func(a *models.Activity, value *string) { a.Name = deref(value) },
	},
	{
		Key:       "priority",
		Label:     "Priority",
		Current:   func(a *models.Activity) *string { return &a.Priority },
		Submitted: func(v Values) *string { return v.Priority },
		Apply:     func(a *models.Activity, value *string) { a.Priority = deref(value) },
	},
	{
		Key:       "cost_center",
		Label:     "Cost center",
		Current:   func(a *models.Activity) *string { return &a.CostCenter },
		Submitted: func(v Values) *string { return v.CostCenter },
		Apply:     func(a *models.Activity, value *string) { a.CostCenter = deref(value) },
	},
	{
		Key:       "status",
		Label:     "Status",
		Current:   func(a *models.Activity) *string { return &a.Status },
		Submitted: func(v Values) *string { return v.Status },
		Apply:     func(a *models.Activity, value *string) { a.Status = deref(value) },
	},
	{
		Key:       "notes",
		Label:     "Notes",
		Current:   func(a *models.Activity) *string { return a.Notes },
		Submitted: func(v Values) *string { return v.Notes },
		Apply:     func(a *models.Activity, value *string) { a.Notes = clone(value) },
	},
	{
		Key:       "order_ref",
		Label:     "Order",
		Current:   func(a *models.Activity) *string { return a.OrderRef },
		Submitted: func(v Values) *string { return v.OrderRef },
		Apply:     func(a *models.Activity, value *string) { a.OrderRef = clone(value) },
	},
	{
		Key:       "delivery_location",
		Label:     "Delivery location",
		Current:   func(a *models.Activity) *string { return a.DeliveryLocation },
		Submitted: func(v Values) *string { return v.DeliveryLocation },
		Apply:     func(a *models.Activity, value *string) { a.DeliveryLocation = clone(value) },
	},
	{
		Key:       "requester",
		Label:     "Requester",
		Current:   func(a *models.Activity) *string { return a.Requester },
		Submitted: func(v Values) *string { return v.Requester },
		Apply:     func(a *models.Activity, value *string) { a.Requester = clone(value) },
	},
	{
		Key:       "destination",
		Label:     "Destination",
		Current:   func(a *models.Activity) *string { return a.Destination },
		Submitted: func(v Values) *string { return v.Destination },
		Apply:     func(a *models.Activity, value *string) { a.Destination = clone(value) },
	},
}

// Change describes one field whose normalized value differs.
type Change struct {
	Field string
	Old   *string
	New   *string
}

// Equal compares two values treating nil and the empty string as the same value.
func Equal(a, b *string) bool {
	return deref(a) == deref(b)
}

// Diff compares the activity with the submitted values, applies every differing value to
// the activity and returns the changes in table order. Old and new values are kept as
// read, before normalization.
func Diff(a *models.Activity, submitted Values) []Change {
	var changes []Change
	for _, field := range Fields {
		current := field.Current(a)
		proposed := field.Submitted(submitted)
		if Equal(current, proposed) {
			continue
		}
		changes = append(changes, Change{
			Field: field.Label,
			Old:   clone(current),
			New:   clone(proposed),
		})
		field.Apply(a, proposed)
	}
	return changes
}

// Entries converts changes into history rows sharing one timestamp, preserving order.
func Entries(activityID uint, changes []Change, actor string, at time.Time) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(changes))
	for _, change := range changes {
		entries = append(entries, models.HistoryEntry{
			ActivityID: activityID,
			ModifiedAt: at,
			Field:      change.Field,
			OldValue:   change.Old,
			NewValue:   change.New,
			ModifiedBy: actor,
		})
	}
	return entries
}

// CreationChanges returns the changes recorded when an activity is first stored: one
// creation entry and, when an attachment was supplied, one attachment entry.
func CreationChanges(a *models.Activity) []Change {
	message := fmt.Sprintf("Activity '%s' created.", a.Name)
	changes := []Change{{Field: FieldCreation, New: &message}}
	if a.Attachment != nil && *a.Attachment != "" {
		changes = append(changes, Change{Field: FieldAttachment, New: clone(a.Attachment)})
	}
	return changes
}

// AttachmentChange records the replacement of a stored attachment.
func AttachmentChange(previous *string, stored string) Change {
	return Change{Field: FieldAttachment, Old: clone(previous), New: &stored}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func clone(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
