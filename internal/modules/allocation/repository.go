package allocation

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no allocation row matches the given ID.
var ErrNotFound = errors.New("allocation not found")

// Repository defines daily allocation data storage.
type Repository interface {
	ListAllocations(ctx context.Context) ([]*DailyAllocation, error)
	CreateAllocation(ctx context.Context, a *DailyAllocation) error
	// UpdateAllocation overwrites remaining quantity and status.
	UpdateAllocation(ctx context.Context, a *DailyAllocation) error
	// DecrementRemaining atomically drains qty from the stored remaining
	// quantity and returns the row as it is after the update.
	DecrementRemaining(ctx context.Context, id string, qty float64) (*DailyAllocation, error)
}
