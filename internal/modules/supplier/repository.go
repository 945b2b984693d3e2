package supplier

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no supplier row matches the given ID.
var ErrNotFound = errors.New("supplier not found")

// Repository defines the interface for supplier data storage.
type Repository interface {
	ListSuppliers(ctx context.Context) ([]*Supplier, error)
	CreateSupplier(ctx context.Context, s *Supplier) error
	UpdateSupplierStatus(ctx context.Context, id string, status Status) error
}
