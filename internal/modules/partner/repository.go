package partner

import "context"

// Repository defines delivery partner data storage.
type Repository interface {
	ListPartners(ctx context.Context) ([]*DeliveryPartner, error)
	CreatePartner(ctx context.Context, p *DeliveryPartner) error
}
