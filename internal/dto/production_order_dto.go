package dto

// ProductionOrderRequest captures the new production order form. Dates use YYYY-MM-DD.
type ProductionOrderRequest struct {
	Name                 string `form:"name" validate:"required,max=200"`
	OrderRef             string `form:"order_ref" validate:"max=100"`
	ProductionEndDate    string `form:"production_end_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedDeliveryDate string `form:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	CostCenter           string `form:"cost_center" validate:"max=100"`
	Requester            string `form:"requester" validate:"max=150"`
	Destination          string `form:"destination" validate:"max=200"`
	Notes                string `form:"notes"`
}

// ProductionOrderCreateResult reports the outcome of a creation.
type ProductionOrderCreateResult struct {
	ID             uint
	IgnoredUploads []string
}
