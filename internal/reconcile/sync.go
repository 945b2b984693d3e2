package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
)

// SyncState says how an in-memory entity relates to its remote row.
type SyncState string

const (
	Synced SyncState = "synced"
	// LocalOnly entities have no remote row yet.
	LocalOnly SyncState = "local_only"
	// Diverged entities exist remotely with different field values.
	Diverged SyncState = "diverged"
)

// Kind names an entity collection.
type Kind string

const (
	KindSupplier   Kind = "supplier"
	KindPartner    Kind = "delivery_partner"
	KindCustomer   Kind = "customer"
	KindAssignment Kind = "assignment"
	KindAllocation Kind = "allocation"
	KindDelivery   Kind = "delivery"
)

// Push order, parents before the rows that name them. The schema declares no
// foreign keys, so this is a convention rather than a constraint.
var kindOrder = map[Kind]int{
	KindSupplier:   0,
	KindPartner:    1,
	KindCustomer:   2,
	KindAssignment: 3,
	KindAllocation: 4,
	KindDelivery:   5,
}

// EntityRef identifies one entity. For assignments ID is the partner ID.
type EntityRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// Report summarises one Reconcile pass.
type Report struct {
	Pushed []EntityRef `json:"pushed"`
	// Failed maps "<kind>/<id>" to the push error.
	Failed map[string]string `json:"failed,omitempty"`
}

// Pending is the number of entities still not synced after the pass.
func (r Report) Pending() int { return len(r.Failed) }

func (e *Engine) setState(kind Kind, id string, s SyncState) {
	ref := EntityRef{Kind: kind, ID: id}
	if s == Synced {
		delete(e.states, ref)
		return
	}
	e.states[ref] = s
}

func (e *Engine) state(kind Kind, id string) SyncState {
	if s, ok := e.states[EntityRef{Kind: kind, ID: id}]; ok {
		return s
	}
	return Synced
}

// markDiverged records a failed remote update. An entity without a remote
// row stays LocalOnly, since the next pass must insert it.
func (e *Engine) markDiverged(kind Kind, id string) {
	if e.state(kind, id) == LocalOnly {
		return
	}
	e.setState(kind, id, Diverged)
}

// SyncStates returns every entity that is not Synced.
func (e *Engine) SyncStates() map[EntityRef]SyncState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[EntityRef]SyncState, len(e.states))
	for k, v := range e.states {
		out[k] = v
	}
	return out
}

// Reconcile pushes every LocalOnly entity (insert) and every Diverged entity
// (update or replace) to the remote store. Entities that push cleanly become
// Synced; the rest keep their state and are listed in the report.
func (e *Engine) Reconcile(ctx context.Context) (Report, error) {
	if e.remote == nil {
		return Report{}, ErrStoreUnavailable
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	refs := make([]EntityRef, 0, len(e.states))
	for ref := range e.states {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return kindOrder[refs[i].Kind] < kindOrder[refs[j].Kind]
		}
		return refs[i].ID < refs[j].ID
	})

	report := Report{Pushed: []EntityRef{}, Failed: map[string]string{}}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.push(ctx, ref, e.states[ref]); err != nil {
			e.log.Warn().Err(err).Str("kind", string(ref.Kind)).Str("id", ref.ID).Msg("Reconcile push failed")
			report.Failed[string(ref.Kind)+"/"+ref.ID] = err.Error()
			continue
		}
		e.setState(ref.Kind, ref.ID, Synced)
		report.Pushed = append(report.Pushed, ref)
	}

	e.log.Info().Int("pushed", len(report.Pushed)).Int("failed", len(report.Failed)).Msg("Reconcile pass finished")
	return report, nil
}

func (e *Engine) push(ctx context.Context, ref EntityRef, s SyncState) error {
	switch ref.Kind {
	case KindPartner:
		p := e.findPartner(ref.ID)
		if p == nil {
			return ErrNotFound
		}
		return e.remote.Partners.CreatePartner(ctx, p.Clone())
	case KindCustomer:
		c := e.findCustomer(ref.ID)
		if c == nil {
			return ErrNotFound
		}
		cp := *c
		return e.remote.Customers.CreateCustomer(ctx, &cp)
	case KindAssignment:
		return e.remote.Assignments.ReplacePartnerAssignments(ctx, ref.ID, e.assignments[ref.ID])
	case KindAllocation:
		a := e.findAllocation(ref.ID)
		if a == nil {
			return ErrNotFound
		}
		cp := *a
		if s == LocalOnly {
			return e.remote.Allocations.CreateAllocation(ctx, &cp)
		}
		return e.remote.Allocations.UpdateAllocation(ctx, &cp)
	case KindDelivery:
		d := e.findDelivery(ref.ID)
		if d == nil {
			return ErrNotFound
		}
		if s == LocalOnly {
			return e.remote.Deliveries.CreateDelivery(ctx, d.Clone())
		}
		return e.remote.Deliveries.UpdateDelivery(ctx, d.Clone())
	default:
		return fmt.Errorf("cannot push %s entities", ref.Kind)
	}
}

func (e *Engine) findAllocation(id string) *allocation.DailyAllocation {
	for _, a := range e.allocations {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (e *Engine) findDelivery(id string) *delivery.Delivery {
	for _, d := range e.deliveries {
		if d.ID == id {
			return d
		}
	}
	return nil
}
