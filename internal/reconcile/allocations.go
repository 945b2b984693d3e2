package reconcile

import (
	"context"

	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
)

// AddDailyAllocation records a partner's budget for a date and generates one
// pending delivery per customer the partner has at this moment. Customers
// assigned later get nothing until the next allocation.
//
// Remote failures are logged; the allocation and any delivery that could not
// be saved stay LocalOnly.
func (e *Engine) AddDailyAllocation(ctx context.Context, in NewAllocation) (*allocation.DailyAllocation, []*delivery.Delivery) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	remaining := in.AllocatedQuantity
	if in.RemainingQuantity != nil {
		remaining = *in.RemainingQuantity
	}
	a := &allocation.DailyAllocation{
		ID:                newID(prefixAllocation, now),
		SupplierID:        in.SupplierID,
		DeliveryPartnerID: in.DeliveryPartnerID,
		Date:              in.Date,
		AllocatedQuantity: in.AllocatedQuantity,
		RemainingQuantity: remaining,
		Status:            allocation.StatusAllocated,
		CreatedAt:         now,
	}

	if e.remote == nil {
		e.setState(KindAllocation, a.ID, LocalOnly)
	} else {
		row := *a
		if err := e.remote.Allocations.CreateAllocation(ctx, &row); err != nil {
			e.log.Warn().Err(err).Str("allocation_id", a.ID).Msg("Failed to save allocation remotely, keeping it locally")
			e.setState(KindAllocation, a.ID, LocalOnly)
		}
	}
	e.allocations = append([]*allocation.DailyAllocation{a}, e.allocations...)
	e.persistAllocations(ctx)

	created := e.fanOut(ctx, a)

	e.rederive()
	out := *a
	return &out, copyDeliveries(created)
}

func (e *Engine) fanOut(ctx context.Context, a *allocation.DailyAllocation) []*delivery.Delivery {
	p := e.findPartner(a.DeliveryPartnerID)
	if p == nil || len(p.AssignedCustomers) == 0 {
		return nil
	}

	now := e.now()
	created := make([]*delivery.Delivery, 0, len(p.AssignedCustomers))
	for _, customerID := range p.AssignedCustomers {
		c := e.findCustomer(customerID)
		if c == nil {
			e.log.Warn().Str("customer_id", customerID).Str("partner_id", p.ID).Msg("Assigned customer not found, no delivery generated")
			continue
		}
		d := &delivery.Delivery{
			ID:                newID(prefixDelivery, now),
			SupplierID:        a.SupplierID,
			DeliveryPartnerID: a.DeliveryPartnerID,
			CustomerID:        c.ID,
			Quantity:          c.DailyQuantity,
			SuggestedQuantity: c.DailyQuantity,
			Date:              a.Date,
			ScheduledTime:     delivery.DefaultScheduledTime,
			Status:            delivery.StatusPending,
			CreatedAt:         now,
		}
		if e.remote == nil {
			e.setState(KindDelivery, d.ID, LocalOnly)
		} else if err := e.remote.Deliveries.CreateDelivery(ctx, d.Clone()); err != nil {
			e.log.Warn().Err(err).Str("delivery_id", d.ID).Msg("Failed to save generated delivery remotely, keeping it locally")
			e.setState(KindDelivery, d.ID, LocalOnly)
		}
		created = append(created, d)
	}

	e.deliveries = append(created, e.deliveries...)
	e.persistDeliveries(ctx)
	return created
}

// UpdateRemainingQuantity drains delivered litres from the allocation of
// partnerID on date. It reports false when there is no such allocation.
func (e *Engine) UpdateRemainingQuantity(ctx context.Context, partnerID, date string, delivered float64) (*allocation.DailyAllocation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.drain(ctx, partnerID, date, delivered)
	if a == nil {
		return nil, false
	}
	out := *a
	return &out, true
}

// drain subtracts delivered from the (partner, date) allocation, clamped at
// zero, in the remote store, memory and the partner's derived fields.
//
// A synced allocation is decremented server-side in one statement and the
// returned row is adopted. Otherwise, or when that call fails, the new value
// is computed locally and the allocation is left for Reconcile.
func (e *Engine) drain(ctx context.Context, partnerID, date string, delivered float64) *allocation.DailyAllocation {
	a := e.allocationFor(partnerID, date)
	if a == nil {
		return nil
	}

	applied := false
	if e.remote != nil && e.state(KindAllocation, a.ID) == Synced {
		row, err := e.remote.Allocations.DecrementRemaining(ctx, a.ID, delivered)
		if err != nil {
			e.log.Warn().Err(err).Str("allocation_id", a.ID).Msg("Failed to update remaining quantity remotely, updating locally")
			e.markDiverged(KindAllocation, a.ID)
		} else {
			a.RemainingQuantity, a.Status = row.RemainingQuantity, row.Status
			applied = true
		}
	}
	if !applied {
		a.RemainingQuantity, a.Status = allocation.Drain(a.RemainingQuantity, delivered)
		if e.remote == nil {
			e.markDiverged(KindAllocation, a.ID)
		}
	}

	e.persistAllocations(ctx)
	e.rederive()
	return a
}
