// Package reconcile owns the in-memory view of the supply chain and keeps it
// consistent with the remote Postgres store and the local durable cache.
//
// Every write goes to the remote store first when it is available and then to
// memory. Writes of partners, customers, assignments, allocations and
// generated deliveries never fail because of the remote store; instead the
// entity is tracked as LocalOnly or Diverged until Reconcile pushes it.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/milkchain-backend/internal/cache"
	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/assignment"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
)

// Gateway groups the remote repositories the engine writes through.
type Gateway struct {
	Suppliers   supplier.Repository
	Partners    partner.Repository
	Customers   customer.Repository
	Assignments assignment.Repository
	Allocations allocation.Repository
	Deliveries  delivery.Repository
}

// Status is the engine's connectivity and loading state.
type Status struct {
	Loading   bool   `json:"loading"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Engine is safe for concurrent use. Each mutating operation runs as one
// critical section, remote calls included.
type Engine struct {
	remote *Gateway
	cache  cache.Store
	log    zerolog.Logger
	now    func() time.Time
	loc    *time.Location

	mu          sync.RWMutex
	suppliers   []*supplier.Supplier
	partners    []*partner.DeliveryPartner
	customers   []*customer.Customer
	allocations []*allocation.DailyAllocation
	deliveries  []*delivery.Delivery
	assignments map[string][]string
	states      map[EntityRef]SyncState
	loading     bool
	loadErr     string
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone that decides "today".
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New creates an engine. A nil remote means the store was unavailable at
// startup; the engine then never calls it. A nil store keeps the cache in
// memory.
func New(remote *Gateway, store cache.Store, opts ...Option) *Engine {
	e := &Engine{
		remote:      remote,
		cache:       store,
		log:         log.Logger,
		now:         time.Now,
		loc:         time.Local,
		assignments: make(map[string][]string),
		states:      make(map[EntityRef]SyncState),
		loading:     true,
	}
	if e.cache == nil {
		e.cache = cache.NewMemoryStore()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether the remote store is in use for this session.
func (e *Engine) Available() bool { return e.remote != nil }

func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{Loading: e.loading, Available: e.remote != nil, Error: e.loadErr}
}

// Today is the current local date as YYYY-MM-DD.
func (e *Engine) Today() string {
	return e.now().In(e.loc).Format(dateLayout)
}

const dateLayout = "2006-01-02"

func (e *Engine) Suppliers() []*supplier.Supplier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*supplier.Supplier, 0, len(e.suppliers))
	for _, s := range e.suppliers {
		c := *s
		out = append(out, &c)
	}
	return out
}

func (e *Engine) Supplier(id string) (*supplier.Supplier, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.findSupplier(id)
	if s == nil {
		return nil, false
	}
	c := *s
	return &c, true
}

// PendingSuppliers returns suppliers still awaiting admin review.
func (e *Engine) PendingSuppliers() []*supplier.Supplier {
	out := []*supplier.Supplier{}
	for _, s := range e.Suppliers() {
		if s.Status == supplier.StatusPending {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) Partners() []*partner.DeliveryPartner {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*partner.DeliveryPartner, 0, len(e.partners))
	for _, p := range e.partners {
		out = append(out, p.Clone())
	}
	return out
}

func (e *Engine) Partner(id string) (*partner.DeliveryPartner, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p := e.findPartner(id)
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

func (e *Engine) Customers() []*customer.Customer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*customer.Customer, 0, len(e.customers))
	for _, c := range e.customers {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func (e *Engine) Customer(id string) (*customer.Customer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := e.findCustomer(id)
	if c == nil {
		return nil, false
	}
	cp := *c
	return &cp, true
}

func (e *Engine) Allocations() []*allocation.DailyAllocation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyAllocations(e.allocations)
}

func (e *Engine) Deliveries() []*delivery.Delivery {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyDeliveries(e.deliveries)
}

func (e *Engine) Delivery(id string) (*delivery.Delivery, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d := e.findDelivery(id)
	if d == nil {
		return nil, false
	}
	return d.Clone(), true
}

// Assignments returns the partner -> customer IDs relation.
func (e *Engine) Assignments() map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyRelation(e.assignments)
}

// GetDailyAllocation finds the allocation of partnerID on date.
func (e *Engine) GetDailyAllocation(partnerID, date string) (*allocation.DailyAllocation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.allocationFor(partnerID, date)
	if a == nil {
		return nil, false
	}
	cp := *a
	return &cp, true
}

func (e *Engine) findSupplier(id string) *supplier.Supplier {
	for _, s := range e.suppliers {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (e *Engine) findPartner(id string) *partner.DeliveryPartner {
	for _, p := range e.partners {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) findCustomer(id string) *customer.Customer {
	for _, c := range e.customers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (e *Engine) allocationFor(partnerID, date string) *allocation.DailyAllocation {
	for _, a := range e.allocations {
		if a.DeliveryPartnerID == partnerID && a.Date == date {
			return a
		}
	}
	return nil
}

// rederive recomputes the partner fields that depend on the assignment
// relation and on today's allocations.
func (e *Engine) rederive() {
	partners := AssignCustomersToPartners(e.partners, e.assignments)
	e.partners = ApplyDailyAllocations(partners, e.allocations, e.Today())
}

// The cache is a mirror; a failed write is logged and otherwise ignored.
func (e *Engine) persist(ctx context.Context, key string, v interface{}) {
	if err := cache.SetJSON(ctx, e.cache, key, v); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("Failed to write local cache")
	}
}

func (e *Engine) persistAllocations(ctx context.Context) {
	e.persist(ctx, cache.KeyDailyAllocations, e.allocations)
}

func (e *Engine) persistDeliveries(ctx context.Context) {
	e.persist(ctx, cache.KeyDeliveries, e.deliveries)
}

func (e *Engine) persistAssignments(ctx context.Context) {
	e.persist(ctx, cache.KeyCustomerAssignments, e.assignments)
}

func copyAllocations(in []*allocation.DailyAllocation) []*allocation.DailyAllocation {
	out := make([]*allocation.DailyAllocation, 0, len(in))
	for _, a := range in {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

func copyDeliveries(in []*delivery.Delivery) []*delivery.Delivery {
	out := make([]*delivery.Delivery, 0, len(in))
	for _, d := range in {
		out = append(out, d.Clone())
	}
	return out
}

func copyRelation(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string{}, v...)
	}
	return out
}
