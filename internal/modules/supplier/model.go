package supplier

import "time"

// Status is the approval lifecycle of a supplier.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Supplier represents a dairy supplier registered on the platform.
// @Description Supplier information
// @Description with id, name, contact details, license_number, total_capacity and status
type Supplier struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	LicenseNumber    string    `json:"license_number"`
	TotalCapacity    float64   `json:"total_capacity"`
	Status           Status    `json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
