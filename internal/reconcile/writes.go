package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
)

// AddSupplier registers a pending supplier. The remote write must succeed.
func (e *Engine) AddSupplier(ctx context.Context, in NewSupplier) (*supplier.Supplier, error) {
	if e.remote == nil {
		return nil, fmt.Errorf("failed to add supplier: %w", ErrStoreUnavailable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	s := &supplier.Supplier{
		ID:               newID(prefixSupplier, now),
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		LicenseNumber:    in.LicenseNumber,
		TotalCapacity:    in.TotalCapacity,
		Status:           supplier.StatusPending,
		RegistrationDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	row := *s
	if err := e.remote.Suppliers.CreateSupplier(ctx, &row); err != nil {
		return nil, fmt.Errorf("failed to add supplier: %w", err)
	}
	if !row.CreatedAt.IsZero() {
		s.CreatedAt, s.UpdatedAt = row.CreatedAt, row.UpdatedAt
	}

	e.suppliers = append([]*supplier.Supplier{s}, e.suppliers...)
	out := *s
	return &out, nil
}

// UpdateSupplierStatus approves or rejects a pending supplier. Nothing but
// the status changes, and only after the remote store accepts it.
func (e *Engine) UpdateSupplierStatus(ctx context.Context, id string, status supplier.Status) (*supplier.Supplier, error) {
	if status != supplier.StatusApproved && status != supplier.StatusRejected {
		return nil, fmt.Errorf("supplier status %q: %w", status, ErrInvalidStatus)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.findSupplier(id)
	if s == nil {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	if s.Status != supplier.StatusPending {
		return nil, fmt.Errorf("supplier %s is %s: %w", id, s.Status, ErrInvalidTransition)
	}
	if e.remote == nil {
		return nil, fmt.Errorf("failed to update supplier status: %w", ErrStoreUnavailable)
	}
	if err := e.remote.Suppliers.UpdateSupplierStatus(ctx, id, status); err != nil {
		if errors.Is(err, supplier.ErrNotFound) {
			err = fmt.Errorf("%v: %w", err, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update supplier status: %w", err)
	}

	s.Status = status
	out := *s
	return &out, nil
}

// AddDeliveryPartner registers a partner. A failed remote insert leaves the
// partner LocalOnly.
func (e *Engine) AddDeliveryPartner(ctx context.Context, in NewPartner) *partner.DeliveryPartner {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	status := partner.Status(in.Status)
	if status == "" {
		status = partner.StatusActive
	}
	p := &partner.DeliveryPartner{
		ID:                newID(prefixPartner, now),
		SupplierID:        in.SupplierID,
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		VehicleNumber:     in.VehicleNumber,
		Password:          in.Password,
		Status:            status,
		CreatedAt:         now,
		AssignedCustomers: []string{},
	}
	p.UserID = p.ID

	if e.remote == nil {
		e.setState(KindPartner, p.ID, LocalOnly)
	} else if err := e.remote.Partners.CreatePartner(ctx, p.Clone()); err != nil {
		e.log.Warn().Err(err).Str("partner_id", p.ID).Msg("Failed to save delivery partner remotely, keeping it locally")
		e.setState(KindPartner, p.ID, LocalOnly)
	}

	e.partners = append([]*partner.DeliveryPartner{p}, e.partners...)
	e.rederive()
	return e.findPartner(p.ID).Clone()
}

// AddCustomer registers a customer. On a successful remote insert the
// customer takes the ID the store assigned.
func (e *Engine) AddCustomer(ctx context.Context, in NewCustomer) *customer.Customer {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	c := &customer.Customer{
		ID:            newID(prefixCustomer, now),
		SupplierID:    in.SupplierID,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		DailyQuantity: in.DailyQuantity,
		CreatedAt:     now,
	}

	if e.remote == nil {
		e.setState(KindCustomer, c.ID, LocalOnly)
	} else {
		row := *c
		row.ID = ""
		if err := e.remote.Customers.CreateCustomer(ctx, &row); err != nil {
			e.log.Warn().Err(err).Str("customer_id", c.ID).Msg("Failed to save customer remotely, keeping it locally")
			e.setState(KindCustomer, c.ID, LocalOnly)
		} else {
			c.ID = row.ID
			if !row.CreatedAt.IsZero() {
				c.CreatedAt = row.CreatedAt
			}
		}
	}

	e.customers = append([]*customer.Customer{c}, e.customers...)
	out := *c
	return &out
}

// AssignCustomers replaces the customer list of partnerID.
func (e *Engine) AssignCustomers(ctx context.Context, partnerID string, customerIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findPartner(partnerID) == nil {
		return fmt.Errorf("delivery partner %s: %w", partnerID, ErrNotFound)
	}
	ids := append([]string{}, customerIDs...)

	if e.remote == nil {
		e.setState(KindAssignment, partnerID, LocalOnly)
	} else if err := e.remote.Assignments.ReplacePartnerAssignments(ctx, partnerID, ids); err != nil {
		e.log.Warn().Err(err).Str("partner_id", partnerID).Msg("Failed to save assignments remotely, keeping them locally")
		e.markDiverged(KindAssignment, partnerID)
	} else {
		e.setState(KindAssignment, partnerID, Synced)
	}

	e.assignments[partnerID] = ids
	e.persistAssignments(ctx)
	e.rederive()
	return nil
}
