package allocation

import "time"

// Status tracks how far a partner has worked through a day's allocation.
type Status string

const (
	StatusAllocated  Status = "allocated"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// DailyAllocation is one partner's milk budget for one date.
// Date is a calendar date string (YYYY-MM-DD) and is compared by exact match.
type DailyAllocation struct {
	ID                string    `json:"id"`
	SupplierID        string    `json:"supplier_id"`
	DeliveryPartnerID string    `json:"delivery_partner_id"`
	Date              string    `json:"allocation_date"`
	AllocatedQuantity float64   `json:"allocated_quantity"`
	RemainingQuantity float64   `json:"remaining_quantity"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// SameState reports whether two copies of an allocation agree on every
// field that can change after creation.
func (a *DailyAllocation) SameState(o *DailyAllocation) bool {
	return a.RemainingQuantity == o.RemainingQuantity &&
		a.AllocatedQuantity == o.AllocatedQuantity &&
		a.Status == o.Status
}

// Drain subtracts a delivered quantity from remaining, clamped at zero.
// The allocation is completed exactly when nothing remains.
func Drain(remaining, delivered float64) (float64, Status) {
	next := remaining - delivered
	if next <= 0 {
		return 0, StatusCompleted
	}
	return next, StatusInProgress
}
