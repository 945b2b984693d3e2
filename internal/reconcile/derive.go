package reconcile

import (
	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
)

// AssignCustomersToPartners returns copies of partners with AssignedCustomers
// set from the relation. Partners absent from the relation get an empty list.
func AssignCustomersToPartners(partners []*partner.DeliveryPartner, relation map[string][]string) []*partner.DeliveryPartner {
	out := make([]*partner.DeliveryPartner, 0, len(partners))
	for _, p := range partners {
		c := p.Clone()
		c.AssignedCustomers = append([]string{}, relation[p.ID]...)
		out = append(out, c)
	}
	return out
}

// ApplyDailyAllocations returns copies of partners with DailyAllocation and
// RemainingQuantity taken from the allocation dated today, or zero when the
// partner has none. Dates match by exact string equality.
func ApplyDailyAllocations(partners []*partner.DeliveryPartner, allocations []*allocation.DailyAllocation, today string) []*partner.DeliveryPartner {
	byPartner := make(map[string]*allocation.DailyAllocation)
	for _, a := range allocations {
		if a.Date != today {
			continue
		}
		// First match wins, as lookups by (partner, date) do elsewhere.
		if _, ok := byPartner[a.DeliveryPartnerID]; !ok {
			byPartner[a.DeliveryPartnerID] = a
		}
	}

	out := make([]*partner.DeliveryPartner, 0, len(partners))
	for _, p := range partners {
		c := p.Clone()
		c.DailyAllocation, c.RemainingQuantity = 0, 0
		if a, ok := byPartner[p.ID]; ok {
			c.DailyAllocation = a.AllocatedQuantity
			c.RemainingQuantity = a.RemainingQuantity
		}
		out = append(out, c)
	}
	return out
}
