package partner

import "time"

// Status marks whether a delivery partner is currently working routes.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// DeliveryPartner is a rider/driver employed by exactly one supplier.
//
// AssignedCustomers, DailyAllocation and RemainingQuantity are derived by the
// reconciliation engine and are never persisted on the partner row.
type DeliveryPartner struct {
	ID            string    `json:"id"`
	SupplierID    string    `json:"supplier_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	VehicleNumber string    `json:"vehicle_number"`
	UserID        string    `json:"user_id"`
	Password      string    `json:"-"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`

	AssignedCustomers []string `json:"assigned_customers"`
	DailyAllocation   float64  `json:"daily_allocation"`
	RemainingQuantity float64  `json:"remaining_quantity"`
}

// Clone returns a deep copy, so callers can't mutate engine-owned state.
func (p *DeliveryPartner) Clone() *DeliveryPartner {
	c := *p
	c.AssignedCustomers = append([]string(nil), p.AssignedCustomers...)
	return &c
}
