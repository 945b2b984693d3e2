package reconcile

// NewSupplier is a supplier signup.
type NewSupplier struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	LicenseNumber string  `json:"license_number" validate:"required"`
	TotalCapacity float64 `json:"total_capacity" validate:"gte=0"`
}

// NewPartner registers a delivery partner under a supplier. Status defaults
// to active.
type NewPartner struct {
	SupplierID    string `json:"supplier_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number"`
	Password      string `json:"password"`
	Status        string `json:"status"`
}

type NewCustomer struct {
	SupplierID    string  `json:"supplier_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	DailyQuantity float64 `json:"daily_quantity"`
}

// NewAllocation creates a partner's budget for Date. A nil
// RemainingQuantity starts it at AllocatedQuantity.
type NewAllocation struct {
	SupplierID        string   `json:"supplier_id"`
	DeliveryPartnerID string   `json:"delivery_partner_id"`
	Date              string   `json:"date"`
	AllocatedQuantity float64  `json:"allocated_quantity"`
	RemainingQuantity *float64 `json:"remaining_quantity,omitempty"`
}

type NewDelivery struct {
	SupplierID        string  `json:"supplier_id"`
	DeliveryPartnerID string  `json:"delivery_partner_id"`
	CustomerID        string  `json:"customer_id"`
	Quantity          float64 `json:"quantity"`
	Date              string  `json:"date"`
	ScheduledTime     string  `json:"scheduled_time"`
	Notes             string  `json:"notes"`
}
