package reconcile

import (
	"context"
	"fmt"

	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
)

// AddDelivery creates a single pending delivery. The remote write must
// succeed.
func (e *Engine) AddDelivery(ctx context.Context, in NewDelivery) (*delivery.Delivery, error) {
	if e.remote == nil {
		return nil, fmt.Errorf("failed to add delivery: %w", ErrStoreUnavailable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	scheduled := in.ScheduledTime
	if scheduled == "" {
		scheduled = delivery.DefaultScheduledTime
	}
	d := &delivery.Delivery{
		ID:                newID(prefixDelivery, now),
		SupplierID:        in.SupplierID,
		DeliveryPartnerID: in.DeliveryPartnerID,
		CustomerID:        in.CustomerID,
		Quantity:          in.Quantity,
		SuggestedQuantity: in.Quantity,
		Date:              in.Date,
		ScheduledTime:     scheduled,
		Status:            delivery.StatusPending,
		Notes:             in.Notes,
		CreatedAt:         now,
	}
	if err := e.remote.Deliveries.CreateDelivery(ctx, d.Clone()); err != nil {
		return nil, fmt.Errorf("failed to add delivery: %w", err)
	}

	e.deliveries = append([]*delivery.Delivery{d}, e.deliveries...)
	e.persistDeliveries(ctx)
	return d.Clone(), nil
}

// UpdateDeliveryStatus sets a delivery's status and notes.
//
// Completing a delivery stamps CompletedTime and drains its quantity from the
// partner's allocation for the delivery date. A completed delivery is final:
// completing it again changes nothing, any other status is rejected.
// Cancelling never touches the allocation.
//
// When the remote store is in use and rejects the update, the error is
// returned and nothing changes locally.
func (e *Engine) UpdateDeliveryStatus(ctx context.Context, id string, status delivery.Status, notes string) (*delivery.Delivery, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("delivery status %q: %w", status, ErrInvalidStatus)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.findDelivery(id)
	if d == nil {
		return nil, fmt.Errorf("delivery %s: %w", id, ErrNotFound)
	}
	if d.Status == delivery.StatusCompleted {
		if status == delivery.StatusCompleted {
			return d.Clone(), nil
		}
		return nil, fmt.Errorf("delivery %s is already completed: %w", id, ErrInvalidTransition)
	}

	next := d.Clone()
	next.Status = status
	next.Notes = notes
	if status == delivery.StatusCompleted {
		t := e.now().Truncate(delivery.TimePrecision)
		next.CompletedTime = &t
	}

	if err := e.writeDelivery(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	*d = *next

	e.persistDeliveries(ctx)
	if status == delivery.StatusCompleted {
		e.drain(ctx, d.DeliveryPartnerID, d.Date, d.Quantity)
	}
	return d.Clone(), nil
}

// UpdateDeliveryQuantity changes the litres of a delivery that is not yet
// completed. A failed remote update leaves the delivery Diverged.
func (e *Engine) UpdateDeliveryQuantity(ctx context.Context, id string, quantity float64) (*delivery.Delivery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.findDelivery(id)
	if d == nil {
		return nil, fmt.Errorf("delivery %s: %w", id, ErrNotFound)
	}
	if d.Status == delivery.StatusCompleted {
		return nil, fmt.Errorf("delivery %s is already completed: %w", id, ErrInvalidTransition)
	}

	next := d.Clone()
	next.Quantity = quantity
	if err := e.writeDelivery(ctx, next); err != nil {
		e.log.Warn().Err(err).Str("delivery_id", id).Msg("Failed to update delivery quantity remotely, keeping it locally")
		e.markDiverged(KindDelivery, id)
	}
	*d = *next

	e.persistDeliveries(ctx)
	return d.Clone(), nil
}

// writeDelivery updates the remote row of d. Deliveries without a remote row
// and sessions without a remote store only change locally and are marked for
// the next Reconcile.
func (e *Engine) writeDelivery(ctx context.Context, d *delivery.Delivery) error {
	if e.remote == nil {
		e.markDiverged(KindDelivery, d.ID)
		return nil
	}
	if e.state(KindDelivery, d.ID) == LocalOnly {
		return nil
	}
	if err := e.remote.Deliveries.UpdateDelivery(ctx, d.Clone()); err != nil {
		return err
	}
	// The update carries every mutable field, so the rows agree again.
	e.setState(KindDelivery, d.ID, Synced)
	return nil
}
