package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProductionOrder is a production and delivery request. It carries no change history.
type ProductionOrder struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Name                 string          `gorm:"size:200;not null" json:"name"`
	OrderRef             *string         `gorm:"size:100" json:"order_ref"`
	ProductionEndDate    *datatypes.Date `json:"production_end_date"`
	ExpectedDeliveryDate *datatypes.Date `json:"expected_delivery_date"`
	CostCenter           *string         `gorm:"size:100" json:"cost_center"`
	Requester            *string         `gorm:"size:150" json:"requester"`
	Destination          *string         `gorm:"size:200" json:"destination"`
	Notes                *string         `gorm:"type:text" json:"notes"`
	ImageAttachment      *string         `gorm:"size:100" json:"image_attachment"`
	FileAttachment       *string         `gorm:"size:100" json:"file_attachment"`
	CreatedAt            time.Time       `gorm:"index" json:"created_at"`
	CreatedBy            string          `gorm:"size:150;not null" json:"created_by"`
}
