package delivery

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no delivery row matches the given ID.
var ErrNotFound = errors.New("delivery not found")

// Repository defines delivery data storage.
type Repository interface {
	ListDeliveries(ctx context.Context) ([]*Delivery, error)
	CreateDelivery(ctx context.Context, d *Delivery) error
	// UpdateDelivery overwrites status, notes, completed time and quantity.
	UpdateDelivery(ctx context.Context, d *Delivery) error
}
