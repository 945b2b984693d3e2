package reconcile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/milkchain-backend/internal/cache"
	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
	"github.com/georgemunganga/milkchain-backend/internal/testutil"
)

const today = "2026-10-16"

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

var errRemote = errors.New("connection reset by peer")

func gatewayFor(r *testutil.Remote) *Gateway {
	return &Gateway{
		Suppliers:   r.Suppliers,
		Partners:    r.Partners,
		Customers:   r.Customers,
		Assignments: r.Assignments,
		Allocations: r.Allocations,
		Deliveries:  r.Deliveries,
	}
}

func newTestEngine(t *testing.T, remote *testutil.Remote, store cache.Store) *Engine {
	t.Helper()
	var gw *Gateway
	if remote != nil {
		gw = gatewayFor(remote)
	}
	e := New(gw, store,
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
	require.NoError(t, e.Bootstrap(context.Background()))
	return e
}

// seedRoute creates a partner with two customers (2L and 3L) assigned.
func seedRoute(t *testing.T, e *Engine) (partnerID, custA, custB string) {
	t.Helper()
	ctx := context.Background()
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "ravi@example.com", Phone: "555", Password: "pw"})
	a := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "A", Phone: "1", Address: "x", DailyQuantity: 2})
	b := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "B", Phone: "2", Address: "y", DailyQuantity: 3})
	require.NoError(t, e.AssignCustomers(ctx, p.ID, []string{a.ID, b.ID}))
	return p.ID, a.ID, b.ID
}

func TestNewID_Format(t *testing.T) {
	id := newID(prefixPartner, fixedNow)
	assert.Regexp(t, regexp.MustCompile(`^dp_\d{13}_[0-9a-f]{9}$`), id)
	assert.NotEqual(t, id, newID(prefixPartner, fixedNow))
}

func TestBootstrap_Unavailable_LoadsOnlyCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyCustomerAssignments, map[string][]string{"dp_1": {"c1", "c2"}}))
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyDailyAllocations, []*allocation.DailyAllocation{
		{ID: "allocation_1", DeliveryPartnerID: "dp_1", Date: today, AllocatedQuantity: 10, RemainingQuantity: 7, Status: allocation.StatusInProgress},
	}))
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyDeliveries, []*delivery.Delivery{
		{ID: "delivery_1", DeliveryPartnerID: "dp_1", CustomerID: "c1", Quantity: 3, Date: today, Status: delivery.StatusCompleted},
	}))

	e := newTestEngine(t, nil, store)

	st := e.Status()
	assert.False(t, st.Loading)
	assert.False(t, st.Available)
	assert.Empty(t, st.Error)
	assert.Empty(t, e.Suppliers())
	assert.Empty(t, e.Partners())
	assert.Empty(t, e.Customers())
	assert.Len(t, e.Allocations(), 1)
	assert.Len(t, e.Deliveries(), 1)
	assert.Equal(t, map[string][]string{"dp_1": {"c1", "c2"}}, e.Assignments())

	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindAllocation, ID: "allocation_1"}])
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindDelivery, ID: "delivery_1"}])
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindAssignment, ID: "dp_1"}])
}

func TestBootstrap_FetchFailureLeavesEverythingEmpty(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	remote.Suppliers.Rows = []*supplier.Supplier{{ID: "s1", Name: "Pure Dairy", Status: supplier.StatusApproved}}
	remote.Customers.FailOn("ListCustomers", errRemote)

	store := cache.NewMemoryStore()
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyDailyAllocations, []*allocation.DailyAllocation{{ID: "allocation_1"}}))

	e := New(gatewayFor(remote), store, WithLogger(zerolog.Nop()))
	err := e.Bootstrap(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errRemote)

	st := e.Status()
	assert.False(t, st.Loading)
	assert.Contains(t, st.Error, "failed to load data:")
	assert.Empty(t, e.Suppliers())
	assert.Empty(t, e.Allocations())
	assert.Empty(t, e.Assignments())
	assert.Equal(t, 0, remote.Assignments.Calls("ListAssignments"))
}

func TestBootstrap_MergesCacheOverRemoteByID(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	remote.Allocations.Rows = []*allocation.DailyAllocation{
		{ID: "a-same", DeliveryPartnerID: "dp_1", Date: "2026-10-15", AllocatedQuantity: 5, RemainingQuantity: 5, Status: allocation.StatusAllocated},
		{ID: "a-stale", DeliveryPartnerID: "dp_2", Date: today, AllocatedQuantity: 10, RemainingQuantity: 10, Status: allocation.StatusAllocated},
		{ID: "a-remote-only", DeliveryPartnerID: "dp_3", Date: today, AllocatedQuantity: 4, RemainingQuantity: 4, Status: allocation.StatusAllocated},
	}
	store := cache.NewMemoryStore()
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyDailyAllocations, []*allocation.DailyAllocation{
		{ID: "a-local", DeliveryPartnerID: "dp_4", Date: today, AllocatedQuantity: 8, RemainingQuantity: 8, Status: allocation.StatusAllocated},
		{ID: "a-same", DeliveryPartnerID: "dp_1", Date: "2026-10-15", AllocatedQuantity: 5, RemainingQuantity: 5, Status: allocation.StatusAllocated},
		{ID: "a-stale", DeliveryPartnerID: "dp_2", Date: today, AllocatedQuantity: 10, RemainingQuantity: 6, Status: allocation.StatusInProgress},
	}))

	e := newTestEngine(t, remote, store)

	byID := map[string]*allocation.DailyAllocation{}
	for _, a := range e.Allocations() {
		byID[a.ID] = a
	}
	require.Len(t, byID, 4)
	assert.Equal(t, 6.0, byID["a-stale"].RemainingQuantity)
	assert.Equal(t, "a-local", e.Allocations()[0].ID)

	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{KindAllocation, "a-local"}])
	assert.Equal(t, Diverged, states[EntityRef{KindAllocation, "a-stale"}])
	assert.NotContains(t, states, EntityRef{KindAllocation, "a-same"})
	assert.NotContains(t, states, EntityRef{KindAllocation, "a-remote-only"})
}

func TestBootstrap_AssignmentsFallBackToCacheWhenRemoteEmpty(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	require.NoError(t, cache.SetJSON(ctx, store, cache.KeyCustomerAssignments, map[string][]string{"dp_1": {"c9"}}))

	e := newTestEngine(t, testutil.NewRemote(), store)
	assert.Equal(t, map[string][]string{"dp_1": {"c9"}}, e.Assignments())
}

func TestAssignCustomers_ReplacesRatherThanUnions(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})

	require.NoError(t, e.AssignCustomers(ctx, p.ID, []string{"A", "B"}))
	require.NoError(t, e.AssignCustomers(ctx, p.ID, []string{"C"}))

	got, ok := e.Partner(p.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, got.AssignedCustomers)
	assert.Equal(t, []string{"C"}, remote.Assignments.Partner(p.ID))

	var cached map[string][]string
	_, err := cache.GetJSON(ctx, e.cache, cache.KeyCustomerAssignments, &cached)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, cached[p.ID])
}

func TestAssignCustomers_UnknownPartner(t *testing.T) {
	e := newTestEngine(t, testutil.NewRemote(), nil)
	err := e.AssignCustomers(context.Background(), "dp_missing", []string{"A"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddDailyAllocation_FansOutOnePendingDeliveryPerCustomer(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, custA, custB := seedRoute(t, e)

	a, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 5})

	assert.Equal(t, allocation.StatusAllocated, a.Status)
	assert.Equal(t, 5.0, a.RemainingQuantity)
	require.Len(t, created, 2)

	qty := map[string]float64{}
	for _, d := range created {
		assert.Equal(t, delivery.StatusPending, d.Status)
		assert.Equal(t, today, d.Date)
		assert.Equal(t, delivery.DefaultScheduledTime, d.ScheduledTime)
		assert.Equal(t, d.Quantity, d.SuggestedQuantity)
		qty[d.CustomerID] = d.Quantity
	}
	assert.Equal(t, map[string]float64{custA: 2, custB: 3}, qty)
	assert.Len(t, e.Deliveries(), 2)
	assert.Len(t, remote.Deliveries.Rows, 2)

	p, _ := e.Partner(partnerID)
	assert.Equal(t, 5.0, p.DailyAllocation)
	assert.Equal(t, 5.0, p.RemainingQuantity)
}

func TestAddDailyAllocation_LateAssignmentGetsNoDelivery(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testutil.NewRemote(), nil)
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})

	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: p.ID, Date: today, AllocatedQuantity: 5})
	assert.Empty(t, created)

	c := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "Late", Phone: "1", Address: "z", DailyQuantity: 1})
	require.NoError(t, e.AssignCustomers(ctx, p.ID, []string{c.ID}))
	assert.Empty(t, e.Deliveries())
}

func TestAddDailyAllocation_RemoteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, _, _ := seedRoute(t, e)
	remote.Allocations.FailOn("CreateAllocation", errRemote)
	remote.Deliveries.FailOn("CreateDelivery", errRemote)

	a, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 5})
	require.NotNil(t, a)
	require.Len(t, created, 2)

	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{KindAllocation, a.ID}])
	for _, d := range created {
		assert.Equal(t, LocalOnly, states[EntityRef{KindDelivery, d.ID}])
	}

	var cached []*allocation.DailyAllocation
	ok, err := cache.GetJSON(ctx, e.cache, cache.KeyDailyAllocations, &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, cached[0].ID)
}

func TestCompletions_DrainAllocation(t *testing.T) {
	tests := []struct {
		name          string
		allocated     float64
		deliveries    []float64
		wantRemaining float64
		wantStatus    allocation.Status
	}{
		{"partial", 10, []float64{2, 3}, 5, allocation.StatusInProgress},
		{"exact", 5, []float64{2, 3}, 0, allocation.StatusCompleted},
		{"over", 4, []float64{2, 3}, 0, allocation.StatusCompleted},
		{"single", 7.5, []float64{2.5}, 5, allocation.StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			remote := testutil.NewRemote()
			e := newTestEngine(t, remote, nil)
			p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})
			ids := make([]string, 0, len(tt.deliveries))
			for i, q := range tt.deliveries {
				c := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: fmt.Sprintf("c%d", i), Phone: "1", Address: "a", DailyQuantity: q})
				ids = append(ids, c.ID)
			}
			require.NoError(t, e.AssignCustomers(ctx, p.ID, ids))
			a, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: p.ID, Date: today, AllocatedQuantity: tt.allocated})

			for _, d := range created {
				_, err := e.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusCompleted, "")
				require.NoError(t, err)
			}

			got, ok := e.GetDailyAllocation(p.ID, today)
			require.True(t, ok)
			assert.Equal(t, tt.wantRemaining, got.RemainingQuantity)
			assert.Equal(t, tt.wantStatus, got.Status)

			stored, ok := remote.Allocations.Get(a.ID)
			require.True(t, ok)
			assert.Equal(t, tt.wantRemaining, stored.RemainingQuantity)

			partner, _ := e.Partner(p.ID)
			assert.Equal(t, tt.wantRemaining, partner.RemainingQuantity)
		})
	}
}

func TestUpdateDeliveryStatus_CompletingTwiceCountsOnce(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testutil.NewRemote(), nil)
	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})
	d := created[0]

	first, err := e.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusCompleted, "")
	require.NoError(t, err)
	second, err := e.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusCompleted, "again")
	require.NoError(t, err)

	assert.Equal(t, first.CompletedTime, second.CompletedTime)
	a, _ := e.GetDailyAllocation(partnerID, today)
	assert.Equal(t, 10-d.Quantity, a.RemainingQuantity)

	_, err = e.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateDeliveryStatus_CancelLeavesAllocationAlone(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testutil.NewRemote(), nil)
	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})

	got, err := e.UpdateDeliveryStatus(ctx, created[0].ID, delivery.StatusCancelled, "customer away")
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusCancelled, got.Status)
	assert.Equal(t, "customer away", got.Notes)
	assert.Nil(t, got.CompletedTime)

	a, _ := e.GetDailyAllocation(partnerID, today)
	assert.Equal(t, 10.0, a.RemainingQuantity)
	assert.Equal(t, allocation.StatusAllocated, a.Status)
}

func TestUpdateDeliveryStatus_RemoteFailurePropagates(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})
	remote.Deliveries.FailOn("UpdateDelivery", errRemote)

	_, err := e.UpdateDeliveryStatus(ctx, created[0].ID, delivery.StatusCompleted, "")
	require.ErrorIs(t, err, errRemote)

	d, _ := e.Delivery(created[0].ID)
	assert.Equal(t, delivery.StatusPending, d.Status)
	a, _ := e.GetDailyAllocation(partnerID, today)
	assert.Equal(t, 10.0, a.RemainingQuantity)
}

func TestUpdateDeliveryStatus_Validation(t *testing.T) {
	e := newTestEngine(t, testutil.NewRemote(), nil)
	_, err := e.UpdateDeliveryStatus(context.Background(), "delivery_x", delivery.Status("lost"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = e.UpdateDeliveryStatus(context.Background(), "delivery_x", delivery.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeliveryStatus_Offline(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil, nil)
	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})

	got, err := e.UpdateDeliveryStatus(ctx, created[0].ID, delivery.StatusCompleted, "")
	require.NoError(t, err)
	require.NotNil(t, got.CompletedTime)
	assert.True(t, got.CompletedTime.Equal(fixedNow))

	p, _ := e.Partner(partnerID)
	assert.Equal(t, 10-got.Quantity, p.RemainingQuantity)
}

func TestUpdateDeliveryStatus_ConcurrentCompletions(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})
	var ids []string
	for i := 0; i < 20; i++ {
		c := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: fmt.Sprintf("c%d", i), Phone: "1", Address: "a", DailyQuantity: 1})
		ids = append(ids, c.ID)
	}
	require.NoError(t, e.AssignCustomers(ctx, p.ID, ids))
	a, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: p.ID, Date: today, AllocatedQuantity: 50})

	var wg sync.WaitGroup
	for _, d := range created {
		for n := 0; n < 2; n++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := e.UpdateDeliveryStatus(ctx, id, delivery.StatusCompleted, "")
				assert.NoError(t, err)
			}(d.ID)
		}
	}
	wg.Wait()

	got, _ := e.GetDailyAllocation(p.ID, today)
	assert.Equal(t, 30.0, got.RemainingQuantity)
	stored, _ := remote.Allocations.Get(a.ID)
	assert.Equal(t, 30.0, stored.RemainingQuantity)
}

func TestUpdateDeliveryQuantity(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})
	id := created[0].ID

	got, err := e.UpdateDeliveryQuantity(ctx, id, 4.5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Quantity)
	stored, _ := remote.Deliveries.Get(id)
	assert.Equal(t, 4.5, stored.Quantity)

	remote.Deliveries.FailOn("UpdateDelivery", errRemote)
	_, err = e.UpdateDeliveryQuantity(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, Diverged, e.SyncStates()[EntityRef{KindDelivery, id}])

	remote.Deliveries.FailOn("UpdateDelivery", nil)
	_, err = e.UpdateDeliveryStatus(ctx, id, delivery.StatusCompleted, "")
	require.NoError(t, err)
	_, err = e.UpdateDeliveryQuantity(ctx, id, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateRemainingQuantity(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, testutil.NewRemote(), nil)
	partnerID, _, _ := seedRoute(t, e)
	e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 3})

	a, ok := e.UpdateRemainingQuantity(ctx, partnerID, today, 1)
	require.True(t, ok)
	assert.Equal(t, 2.0, a.RemainingQuantity)
	assert.Equal(t, allocation.StatusInProgress, a.Status)

	_, ok = e.UpdateRemainingQuantity(ctx, partnerID, "2026-10-17", 1)
	assert.False(t, ok)
}

func TestSupplierApprovalRoundTrip(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)

	created, err := e.AddSupplier(ctx, NewSupplier{Name: "Pure Dairy", Email: "a@pd.com", Phone: "1", Address: "Farm Rd", LicenseNumber: "L-1", TotalCapacity: 500})
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusPending, created.Status)
	assert.Len(t, e.PendingSuppliers(), 1)

	approved, err := e.UpdateSupplierStatus(ctx, created.ID, supplier.StatusApproved)
	require.NoError(t, err)

	reread, ok := e.Supplier(created.ID)
	require.True(t, ok)
	want := *created
	want.Status = supplier.StatusApproved
	assert.Equal(t, &want, reread)
	assert.Equal(t, reread, approved)
	assert.Empty(t, e.PendingSuppliers())

	_, err = e.UpdateSupplierStatus(ctx, created.ID, supplier.StatusRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = e.UpdateSupplierStatus(ctx, created.ID, supplier.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAddSupplier_Failures(t *testing.T) {
	ctx := context.Background()
	in := NewSupplier{Name: "Pure Dairy", Email: "a@pd.com", Phone: "1", Address: "Farm Rd", LicenseNumber: "L-1"}

	offline := newTestEngine(t, nil, nil)
	_, err := offline.AddSupplier(ctx, in)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, offline.Suppliers())

	remote := testutil.NewRemote()
	remote.Suppliers.FailOn("CreateSupplier", errRemote)
	e := newTestEngine(t, remote, nil)
	_, err = e.AddSupplier(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add supplier")
	assert.Empty(t, e.Suppliers())
}

func TestUpdateSupplierStatus_RemoteFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	s, err := e.AddSupplier(ctx, NewSupplier{Name: "Pure Dairy", Email: "a@pd.com", Phone: "1", Address: "x", LicenseNumber: "L"})
	require.NoError(t, err)

	remote.Suppliers.FailOn("UpdateSupplierStatus", errRemote)
	_, err = e.UpdateSupplierStatus(ctx, s.ID, supplier.StatusApproved)
	require.ErrorIs(t, err, errRemote)

	got, _ := e.Supplier(s.ID)
	assert.Equal(t, supplier.StatusPending, got.Status)
}

func TestAddCustomer_AdoptsRemoteID(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)

	c := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "A", Phone: "1", Address: "x", DailyQuantity: 2})
	require.Len(t, remote.Customers.Rows, 1)
	assert.Equal(t, remote.Customers.Rows[0].ID, c.ID)
	assert.NotContains(t, c.ID, "customer_")

	remote.Customers.FailOn("CreateCustomer", errRemote)
	local := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "B", Phone: "2", Address: "y", DailyQuantity: 1})
	assert.Contains(t, local.ID, "customer_")
	assert.Equal(t, LocalOnly, e.SyncStates()[EntityRef{KindCustomer, local.ID}])
}

func TestAddDeliveryPartner_Defaults(t *testing.T) {
	e := newTestEngine(t, testutil.NewRemote(), nil)
	p := e.AddDeliveryPartner(context.Background(), NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})
	assert.Equal(t, "active", string(p.Status))
	assert.Equal(t, p.ID, p.UserID)
	assert.Empty(t, p.AssignedCustomers)
	assert.Zero(t, p.DailyAllocation)
}

func TestAddDelivery(t *testing.T) {
	ctx := context.Background()
	in := NewDelivery{SupplierID: "sup-1", DeliveryPartnerID: "dp_1", CustomerID: "c1", Quantity: 2, Date: today}

	_, err := newTestEngine(t, nil, nil).AddDelivery(ctx, in)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	d, err := e.AddDelivery(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusPending, d.Status)
	assert.Equal(t, delivery.DefaultScheduledTime, d.ScheduledTime)
	assert.Len(t, remote.Deliveries.Rows, 1)

	remote.Deliveries.FailOn("CreateDelivery", errRemote)
	_, err = e.AddDelivery(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add delivery")
	assert.Len(t, e.Deliveries(), 1)
}

func TestReconcile_PushesLocalOnlyAndDiverged(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)

	remote.Partners.FailOn("CreatePartner", errRemote)
	remote.Assignments.FailOn("ReplacePartnerAssignments", errRemote)
	remote.Allocations.FailOn("CreateAllocation", errRemote)
	partnerID, _, _ := seedRoute(t, e)
	a, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})
	require.Len(t, created, 2)

	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{KindPartner, partnerID}])
	assert.Equal(t, Diverged, states[EntityRef{KindAssignment, partnerID}])
	assert.Equal(t, LocalOnly, states[EntityRef{KindAllocation, a.ID}])

	remote.Partners.FailOn("CreatePartner", nil)
	remote.Assignments.FailOn("ReplacePartnerAssignments", nil)
	remote.Allocations.FailOn("CreateAllocation", nil)

	report, err := e.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Pending())
	assert.Len(t, report.Pushed, 3)
	assert.Equal(t, KindPartner, report.Pushed[0].Kind)
	assert.Empty(t, e.SyncStates())

	assert.Len(t, remote.Partners.Rows, 1)
	assert.Len(t, remote.Assignments.Partner(partnerID), 2)
	_, ok := remote.Allocations.Get(a.ID)
	assert.True(t, ok)
}

func TestReconcile_KeepsFailures(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	remote.Partners.FailOn("CreatePartner", errRemote)
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "r@x.io", Phone: "1", Password: "pw"})

	report, err := e.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pending())
	assert.Contains(t, report.Failed, "delivery_partner/"+p.ID)
	assert.Equal(t, LocalOnly, e.SyncStates()[EntityRef{KindPartner, p.ID}])

	_, err = newTestEngine(t, nil, nil).Reconcile(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestReconcile_DivergedAllocationIsUpdated(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, _, _ := seedRoute(t, e)
	a, _ := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})

	remote.Allocations.FailOn("DecrementRemaining", errRemote)
	_, ok := e.UpdateRemainingQuantity(ctx, partnerID, today, 4)
	require.True(t, ok)
	assert.Equal(t, Diverged, e.SyncStates()[EntityRef{KindAllocation, a.ID}])

	_, err := e.Reconcile(ctx)
	require.NoError(t, err)
	stored, _ := remote.Allocations.Get(a.ID)
	assert.Equal(t, 6.0, stored.RemainingQuantity)
	assert.Equal(t, allocation.StatusInProgress, stored.Status)
}

func TestRefresh_RestoresCachedState(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	e := newTestEngine(t, nil, store)
	partnerID, _, _ := seedRoute(t, e)
	e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})

	require.NoError(t, e.Refresh(ctx))

	// Partners and customers are not cached; they survive in memory.
	require.Len(t, e.Partners(), 1)
	assert.Equal(t, LocalOnly, e.SyncStates()[EntityRef{Kind: KindPartner, ID: partnerID}])
	assert.Len(t, e.Customers(), 2)
	assert.Len(t, e.Allocations(), 1)
	assert.Len(t, e.Deliveries(), 2)
	assert.Len(t, e.Assignments()[partnerID], 2)
}

func TestRefresh_KeepsUnpushedPartnersAndCustomers(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)

	remote.Partners.FailOn("CreatePartner", errRemote)
	remote.Customers.FailOn("CreateCustomer", errRemote)
	p := e.AddDeliveryPartner(ctx, NewPartner{SupplierID: "sup-1", Name: "Ravi", Email: "ravi@example.com", Phone: "555", Password: "pw"})
	c := e.AddCustomer(ctx, NewCustomer{SupplierID: "sup-1", Name: "A", Phone: "1", Address: "x", DailyQuantity: 2})

	require.NoError(t, e.Refresh(ctx))

	_, ok := e.Partner(p.ID)
	require.True(t, ok)
	_, ok = e.Customer(c.ID)
	require.True(t, ok)
	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindPartner, ID: p.ID}])
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindCustomer, ID: c.ID}])

	remote.Partners.FailOn("CreatePartner", nil)
	remote.Customers.FailOn("CreateCustomer", nil)
	report, err := e.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Pushed, 2)
	assert.Len(t, remote.Partners.Rows, 1)
	assert.Len(t, remote.Customers.Rows, 1)

	require.NoError(t, e.Refresh(ctx))
	assert.Len(t, e.Partners(), 1)
	assert.Len(t, e.Customers(), 1)
	assert.Empty(t, e.SyncStates())
}

func TestRefresh_FailedFetchKeepsStateAndCache(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	store := cache.NewMemoryStore()
	e := newTestEngine(t, remote, store)

	remote.Allocations.FailOn("CreateAllocation", errRemote)
	first, _ := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: "dp_a", Date: today, AllocatedQuantity: 10})

	remote.Customers.FailOn("ListCustomers", errRemote)
	require.Error(t, e.Refresh(ctx))
	assert.Contains(t, e.Status().Error, "failed to load data:")
	require.Len(t, e.Allocations(), 1)
	assert.Equal(t, LocalOnly, e.SyncStates()[EntityRef{Kind: KindAllocation, ID: first.ID}])

	second, _ := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: "dp_b", Date: today, AllocatedQuantity: 8})

	var cached []*allocation.DailyAllocation
	_, err := cache.GetJSON(ctx, store, cache.KeyDailyAllocations, &cached)
	require.NoError(t, err)
	require.Len(t, cached, 2)

	remote.Customers.FailOn("ListCustomers", nil)
	require.NoError(t, e.Refresh(ctx))
	assert.Empty(t, e.Status().Error)
	assert.Len(t, e.Allocations(), 2)
	states := e.SyncStates()
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindAllocation, ID: first.ID}])
	assert.Equal(t, LocalOnly, states[EntityRef{Kind: KindAllocation, ID: second.ID}])
}

func TestRefresh_KeepsPendingAssignmentsOverRemote(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	partnerID, custA, custB := seedRoute(t, e)

	remote.Assignments.FailOn("ReplacePartnerAssignments", errRemote)
	require.NoError(t, e.AssignCustomers(ctx, partnerID, []string{custB}))

	require.NoError(t, e.Refresh(ctx))

	assert.Equal(t, []string{custB}, e.Assignments()[partnerID])
	assert.Equal(t, Diverged, e.SyncStates()[EntityRef{Kind: KindAssignment, ID: partnerID}])
	assert.NotContains(t, e.Assignments()[partnerID], custA)
}

func TestRefresh_ReadsStayAvailableWhileLoading(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	e := newTestEngine(t, remote, nil)
	remote.Suppliers.Rows = []*supplier.Supplier{{ID: "s1", Name: "Pure Dairy", Status: supplier.StatusApproved}}

	gate := make(chan struct{})
	remote.Suppliers.BlockOn("ListSuppliers", gate)
	done := make(chan error, 1)
	go func() { done <- e.Refresh(ctx) }()

	require.Eventually(t, func() bool { return remote.Suppliers.Calls("ListSuppliers") == 2 },
		time.Second, 5*time.Millisecond)
	assert.True(t, e.Status().Loading)
	assert.Empty(t, e.Suppliers())

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, e.Status().Loading)
	assert.Len(t, e.Suppliers(), 1)
}

func TestRefresh_CompletedDeliveryStaysSyncedAtDatabasePrecision(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewRemote()
	store := cache.NewMemoryStore()
	stamp := fixedNow.Add(123456789 * time.Nanosecond)
	e := New(gatewayFor(remote), store,
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return stamp }),
		WithLocation(time.UTC))
	require.NoError(t, e.Bootstrap(ctx))

	partnerID, _, _ := seedRoute(t, e)
	_, created := e.AddDailyAllocation(ctx, NewAllocation{SupplierID: "sup-1", DeliveryPartnerID: partnerID, Date: today, AllocatedQuantity: 10})
	require.NotEmpty(t, created)
	d, err := e.UpdateDeliveryStatus(ctx, created[0].ID, delivery.StatusCompleted, "done")
	require.NoError(t, err)
	assert.Equal(t, stamp.Truncate(time.Microsecond), *d.CompletedTime)

	// Postgres keeps microseconds.
	for _, row := range remote.Deliveries.Rows {
		if row.CompletedTime != nil {
			ts := row.CompletedTime.Truncate(time.Microsecond)
			row.CompletedTime = &ts
		}
	}

	require.NoError(t, e.Refresh(ctx))
	_, pending := e.SyncStates()[EntityRef{Kind: KindDelivery, ID: d.ID}]
	assert.False(t, pending)
}
