package customer

import "context"

// Repository defines customer data storage.
type Repository interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	// CreateCustomer inserts c. When c.ID is empty the store assigns one and
	// writes it back into c.
	CreateCustomer(ctx context.Context, c *Customer) error
}
