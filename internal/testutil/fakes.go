// Package testutil holds in-memory stand-ins for the Postgres repositories.
// Each fake can be told to fail a named operation.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/assignment"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
)

type failures struct {
	mu    sync.Mutex
	errs  map[string]error
	calls map[string]int
	gates map[string]<-chan struct{}
}

// FailOn makes every later call to op return err. A nil err clears it.
func (f *failures) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Calls reports how many times op has been invoked.
func (f *failures) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// BlockOn makes every later call to op wait until gate is closed.
func (f *failures) BlockOn(op string, gate <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[string]<-chan struct{})
	}
	f.gates[op] = gate
}

func (f *failures) enter(op string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	err, gate := f.errs[op], f.gates[op]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

// Remote bundles one fake per table.
type Remote struct {
	Suppliers   *SupplierRepo
	Partners    *PartnerRepo
	Customers   *CustomerRepo
	Assignments *AssignmentRepo
	Allocations *AllocationRepo
	Deliveries  *DeliveryRepo
}

func NewRemote() *Remote {
	return &Remote{
		Suppliers:   &SupplierRepo{},
		Partners:    &PartnerRepo{},
		Customers:   &CustomerRepo{},
		Assignments: &AssignmentRepo{},
		Allocations: &AllocationRepo{},
		Deliveries:  &DeliveryRepo{},
	}
}

type SupplierRepo struct {
	failures
	Rows []*supplier.Supplier
}

func (r *SupplierRepo) ListSuppliers(ctx context.Context) ([]*supplier.Supplier, error) {
	if err := r.enter("ListSuppliers"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*supplier.Supplier, 0, len(r.Rows))
	for _, s := range r.Rows {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (r *SupplierRepo) CreateSupplier(ctx context.Context, s *supplier.Supplier) error {
	if err := r.enter("CreateSupplier"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c := *s
	r.Rows = append([]*supplier.Supplier{&c}, r.Rows...)
	return nil
}

func (r *SupplierRepo) UpdateSupplierStatus(ctx context.Context, id string, status supplier.Status) error {
	if err := r.enter("UpdateSupplierStatus"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Rows {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return supplier.ErrNotFound
}

type PartnerRepo struct {
	failures
	Rows []*partner.DeliveryPartner
}

func (r *PartnerRepo) ListPartners(ctx context.Context) ([]*partner.DeliveryPartner, error) {
	if err := r.enter("ListPartners"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*partner.DeliveryPartner, 0, len(r.Rows))
	for _, p := range r.Rows {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *PartnerRepo) CreatePartner(ctx context.Context, p *partner.DeliveryPartner) error {
	if err := r.enter("CreatePartner"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rows = append([]*partner.DeliveryPartner{p.Clone()}, r.Rows...)
	return nil
}

type CustomerRepo struct {
	failures
	Rows []*customer.Customer
}

func (r *CustomerRepo) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	if err := r.enter("ListCustomers"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*customer.Customer, 0, len(r.Rows))
	for _, c := range r.Rows {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *CustomerRepo) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if err := r.enter("CreateCustomer"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.Rows = append([]*customer.Customer{&cp}, r.Rows...)
	return nil
}

type AssignmentRepo struct {
	failures
	Rows []*assignment.Assignment
}

func (r *AssignmentRepo) ListAssignments(ctx context.Context) ([]*assignment.Assignment, error) {
	if err := r.enter("ListAssignments"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*assignment.Assignment, 0, len(r.Rows))
	for _, a := range r.Rows {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *AssignmentRepo) ReplacePartnerAssignments(ctx context.Context, partnerID string, customerIDs []string) error {
	if err := r.enter("ReplacePartnerAssignments"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Rows[:0]
	for _, a := range r.Rows {
		if a.DeliveryPartnerID != partnerID {
			kept = append(kept, a)
		}
	}
	for _, id := range customerIDs {
		kept = append(kept, &assignment.Assignment{
			ID:                uuid.NewString(),
			DeliveryPartnerID: partnerID,
			CustomerID:        id,
			AssignedAt:        time.Now(),
		})
	}
	r.Rows = kept
	return nil
}

// Partner returns the customer IDs currently stored for partnerID.
func (r *AssignmentRepo) Partner(partnerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return assignment.GroupByPartner(r.Rows)[partnerID]
}

type AllocationRepo struct {
	failures
	Rows []*allocation.DailyAllocation
}

func (r *AllocationRepo) ListAllocations(ctx context.Context) ([]*allocation.DailyAllocation, error) {
	if err := r.enter("ListAllocations"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*allocation.DailyAllocation, 0, len(r.Rows))
	for _, a := range r.Rows {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *AllocationRepo) CreateAllocation(ctx context.Context, a *allocation.DailyAllocation) error {
	if err := r.enter("CreateAllocation"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.Rows = append([]*allocation.DailyAllocation{&cp}, r.Rows...)
	return nil
}

func (r *AllocationRepo) UpdateAllocation(ctx context.Context, a *allocation.DailyAllocation) error {
	if err := r.enter("UpdateAllocation"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.Rows {
		if row.ID == a.ID {
			row.RemainingQuantity = a.RemainingQuantity
			row.Status = a.Status
			return nil
		}
	}
	return allocation.ErrNotFound
}

func (r *AllocationRepo) DecrementRemaining(ctx context.Context, id string, qty float64) (*allocation.DailyAllocation, error) {
	if err := r.enter("DecrementRemaining"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.Rows {
		if row.ID == id {
			row.RemainingQuantity, row.Status = allocation.Drain(row.RemainingQuantity, qty)
			cp := *row
			return &cp, nil
		}
	}
	return nil, allocation.ErrNotFound
}

// Get returns a copy of the stored allocation with the given ID.
func (r *AllocationRepo) Get(id string) (*allocation.DailyAllocation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.Rows {
		if row.ID == id {
			cp := *row
			return &cp, true
		}
	}
	return nil, false
}

type DeliveryRepo struct {
	failures
	Rows []*delivery.Delivery
}

func (r *DeliveryRepo) ListDeliveries(ctx context.Context) ([]*delivery.Delivery, error) {
	if err := r.enter("ListDeliveries"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*delivery.Delivery, 0, len(r.Rows))
	for _, d := range r.Rows {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (r *DeliveryRepo) CreateDelivery(ctx context.Context, d *delivery.Delivery) error {
	if err := r.enter("CreateDelivery"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rows = append([]*delivery.Delivery{d.Clone()}, r.Rows...)
	return nil
}

func (r *DeliveryRepo) UpdateDelivery(ctx context.Context, d *delivery.Delivery) error {
	if err := r.enter("UpdateDelivery"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.Rows {
		if row.ID == d.ID {
			next := row.Clone()
			next.Status = d.Status
			next.Notes = d.Notes
			next.CompletedTime = d.Clone().CompletedTime
			next.Quantity = d.Quantity
			r.Rows[i] = next
			return nil
		}
	}
	return delivery.ErrNotFound
}

// Get returns a copy of the stored delivery with the given ID.
func (r *DeliveryRepo) Get(id string) (*delivery.Delivery, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.Rows {
		if row.ID == id {
			return row.Clone(), true
		}
	}
	return nil, false
}
