package delivery

import "time"

// Status is the outcome of a single drop-off.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// TimePrecision is the resolution of Postgres timestamps.
const TimePrecision = time.Microsecond

// DefaultScheduledTime is the time-of-day used for generated deliveries and
// for stored rows without one.
const DefaultScheduledTime = "08:00 AM"

// Valid reports whether s is a known delivery status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Delivery is one (customer, partner, date) drop-off.
type Delivery struct {
	ID                string     `json:"id"`
	SupplierID        string     `json:"supplier_id"`
	DeliveryPartnerID string     `json:"delivery_partner_id"`
	CustomerID        string     `json:"customer_id"`
	Quantity          float64    `json:"quantity"`
	SuggestedQuantity float64    `json:"suggested_quantity"`
	Date              string     `json:"delivery_date"`
	ScheduledTime     string     `json:"scheduled_time"`
	CompletedTime     *time.Time `json:"completed_time,omitempty"`
	Status            Status     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Clone returns a copy that shares no pointers with d.
func (d *Delivery) Clone() *Delivery {
	c := *d
	if d.CompletedTime != nil {
		t := *d.CompletedTime
		c.CompletedTime = &t
	}
	return &c
}

// SameState reports whether two copies agree on every mutable field.
func (d *Delivery) SameState(o *Delivery) bool {
	if d.Status != o.Status || d.Quantity != o.Quantity || d.Notes != o.Notes {
		return false
	}
	if (d.CompletedTime == nil) != (o.CompletedTime == nil) {
		return false
	}
	return d.CompletedTime == nil ||
		d.CompletedTime.Truncate(TimePrecision).Equal(o.CompletedTime.Truncate(TimePrecision))
}
