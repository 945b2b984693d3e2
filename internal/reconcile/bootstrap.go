package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/milkchain-backend/internal/cache"
	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/assignment"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
)

type remoteSnapshot struct {
	suppliers   []*supplier.Supplier
	partners    []*partner.DeliveryPartner
	customers   []*customer.Customer
	deliveries  []*delivery.Delivery
	allocations []*allocation.DailyAllocation

	assignments   []*assignment.Assignment
	assignmentErr error
}

// Bootstrap loads the state again:
//
//  1. suppliers, partners, customers, deliveries and allocations from the
//     remote store, all or nothing;
//  2. the assignment relation, remote first with the cache as fallback;
//  3. cached allocations and deliveries, merged by ID over the remote rows;
//  4. and 5. the derived partner fields.
//
// The remote fetch runs without holding the engine lock, so reads and Status
// keep answering while it is in flight. A failed fetch records the error in
// Status and leaves the current state untouched. Entities not yet pushed to
// the remote store survive a successful reload with their sync state.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	var snap *remoteSnapshot
	if e.remote != nil {
		s, err := e.fetchRemote(ctx)
		if err != nil {
			e.mu.Lock()
			e.loading = false
			e.loadErr = fmt.Sprintf("failed to load data: %v", err)
			e.mu.Unlock()
			e.log.Error().Err(err).Msg("Bootstrap failed, keeping current state")
			return fmt.Errorf("failed to load data: %w", err)
		}
		snap = s
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.install(ctx, snap)
	e.loading = false
	e.loadErr = ""
	e.log.Info().
		Bool("available", e.remote != nil).
		Int("suppliers", len(e.suppliers)).
		Int("partners", len(e.partners)).
		Int("customers", len(e.customers)).
		Int("allocations", len(e.allocations)).
		Int("deliveries", len(e.deliveries)).
		Int("unsynced", len(e.states)).
		Msg("Bootstrap complete")
	return nil
}

// Refresh reloads everything, as Bootstrap does.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Bootstrap(ctx)
}

func (e *Engine) fetchRemote(ctx context.Context) (*remoteSnapshot, error) {
	s := &remoteSnapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := e.remote.Suppliers.ListSuppliers(gctx)
		if err != nil {
			return fmt.Errorf("suppliers: %w", err)
		}
		s.suppliers = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.remote.Partners.ListPartners(gctx)
		if err != nil {
			return fmt.Errorf("delivery partners: %w", err)
		}
		s.partners = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.remote.Customers.ListCustomers(gctx)
		if err != nil {
			return fmt.Errorf("customers: %w", err)
		}
		s.customers = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.remote.Deliveries.ListDeliveries(gctx)
		if err != nil {
			return fmt.Errorf("deliveries: %w", err)
		}
		s.deliveries = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.remote.Allocations.ListAllocations(gctx)
		if err != nil {
			return fmt.Errorf("daily allocations: %w", err)
		}
		s.allocations = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Assignments fall back to the cache, so their failure is not fatal.
	s.assignments, s.assignmentErr = e.remote.Assignments.ListAssignments(ctx)
	return s, nil
}

// install replaces the in-memory state with snap merged over what the engine
// already holds. Nothing is ever deleted remotely, so a row the engine has
// that snap lacks is either LocalOnly or was written during the fetch; it is
// kept along with its sync state. The caller holds e.mu.
func (e *Engine) install(ctx context.Context, snap *remoteSnapshot) {
	prev := e.states
	e.states = make(map[EntityRef]SyncState)
	if snap == nil {
		snap = &remoteSnapshot{}
	}

	supplierID := func(s *supplier.Supplier) string { return s.ID }
	partnerID := func(p *partner.DeliveryPartner) string { return p.ID }
	customerID := func(c *customer.Customer) string { return c.ID }
	e.suppliers = carryOver(KindSupplier, prev, e.states, e.suppliers, snap.suppliers, supplierID)
	e.partners = carryOver(KindPartner, prev, e.states, e.partners, snap.partners, partnerID)
	e.customers = carryOver(KindCustomer, prev, e.states, e.customers, snap.customers, customerID)

	e.installAssignments(ctx, snap, prev)
	e.installAllocations(ctx, snap, prev)
	e.installDeliveries(ctx, snap, prev)
	e.rederive()
}

// carryOver returns the current rows missing from loaded, with their previous
// sync state copied into next, followed by loaded.
func carryOver[T any](kind Kind, prev, next map[EntityRef]SyncState, current, loaded []T, id func(T) string) []T {
	listed := make(map[string]bool, len(loaded))
	for _, r := range loaded {
		listed[id(r)] = true
	}
	var kept []T
	for _, c := range current {
		if listed[id(c)] {
			continue
		}
		kept = append(kept, c)
		ref := EntityRef{Kind: kind, ID: id(c)}
		if s, ok := prev[ref]; ok {
			next[ref] = s
		}
	}
	return append(kept, loaded...)
}

func (e *Engine) installAssignments(ctx context.Context, snap *remoteSnapshot, prev map[EntityRef]SyncState) {
	current := e.assignments
	e.assignments = make(map[string][]string)

	if e.remote != nil {
		if snap.assignmentErr != nil {
			e.log.Warn().Err(snap.assignmentErr).Msg("Failed to load assignments, using local cache")
		}
		if snap.assignmentErr == nil && len(snap.assignments) > 0 {
			e.assignments = assignment.GroupByPartner(snap.assignments)
			for partnerID, ids := range current {
				ref := EntityRef{Kind: KindAssignment, ID: partnerID}
				s, pending := prev[ref]
				if _, listed := e.assignments[partnerID]; listed && !pending {
					continue
				}
				e.assignments[partnerID] = ids
				if pending {
					e.states[ref] = s
				}
			}
			return
		}
	}

	var cached map[string][]string
	ok, err := cache.GetJSON(ctx, e.cache, cache.KeyCustomerAssignments, &cached)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to read cached assignments")
	}
	if err != nil || !ok {
		cached = current
	}
	for partnerID, ids := range cached {
		e.assignments[partnerID] = ids
		e.setState(KindAssignment, partnerID, LocalOnly)
	}
}

func (e *Engine) installAllocations(ctx context.Context, snap *remoteSnapshot, prev map[EntityRef]SyncState) {
	var cached []*allocation.DailyAllocation
	if _, err := cache.GetJSON(ctx, e.cache, cache.KeyDailyAllocations, &cached); err != nil {
		e.log.Warn().Err(err).Msg("Failed to read cached allocations, using memory")
		cached = e.allocations
	}

	id := func(a *allocation.DailyAllocation) string { return a.ID }
	merged, states := mergeByID(snap.allocations, cached, id,
		func(a, b *allocation.DailyAllocation) bool { return a.SameState(b) })
	known := pushedIDs(KindAllocation, prev, e.allocations, id)
	e.allocations = merged
	e.applyMergeStates(KindAllocation, states, known)
}

func (e *Engine) installDeliveries(ctx context.Context, snap *remoteSnapshot, prev map[EntityRef]SyncState) {
	var cached []*delivery.Delivery
	if _, err := cache.GetJSON(ctx, e.cache, cache.KeyDeliveries, &cached); err != nil {
		e.log.Warn().Err(err).Msg("Failed to read cached deliveries, using memory")
		cached = e.deliveries
	}

	id := func(d *delivery.Delivery) string { return d.ID }
	merged, states := mergeByID(snap.deliveries, cached, id,
		func(a, b *delivery.Delivery) bool { return a.SameState(b) })
	known := pushedIDs(KindDelivery, prev, e.deliveries, id)
	e.deliveries = merged
	e.applyMergeStates(KindDelivery, states, known)
}

// pushedIDs lists the rows this engine already holds as Synced. They have a
// remote row even when the fetch finished before it was written.
func pushedIDs[T any](kind Kind, prev map[EntityRef]SyncState, current []T, id func(T) string) map[string]bool {
	out := make(map[string]bool, len(current))
	for _, c := range current {
		if _, pending := prev[EntityRef{Kind: kind, ID: id(c)}]; !pending {
			out[id(c)] = true
		}
	}
	return out
}

func (e *Engine) applyMergeStates(kind Kind, states map[string]SyncState, pushed map[string]bool) {
	for id, s := range states {
		if s == LocalOnly && e.remote != nil && pushed[id] {
			continue
		}
		e.setState(kind, id, s)
	}
}

// mergeByID overlays cached rows on remote rows. A cached row that equals its
// remote row is Synced, one that differs replaces it and is Diverged, and one
// with no remote row is LocalOnly and placed first. Remote rows without a
// cached copy are kept as Synced.
func mergeByID[T any](remote, cached []T, id func(T) string, same func(a, b T) bool) ([]T, map[string]SyncState) {
	states := make(map[string]SyncState)
	cachedByID := make(map[string]T, len(cached))
	for _, c := range cached {
		cachedByID[id(c)] = c
	}

	remoteIDs := make(map[string]bool, len(remote))
	merged := make([]T, 0, len(remote)+len(cached))
	for _, r := range remote {
		remoteIDs[id(r)] = true
		c, ok := cachedByID[id(r)]
		if ok && !same(r, c) {
			merged = append(merged, c)
			states[id(r)] = Diverged
			continue
		}
		merged = append(merged, r)
	}

	var local []T
	for _, c := range cached {
		if remoteIDs[id(c)] {
			continue
		}
		local = append(local, c)
		states[id(c)] = LocalOnly
	}
	return append(local, merged...), states
}
