package reconcile

import (
	"math"
	"sort"
	"time"

	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
)

// AdminStats is the platform-wide overview.
type AdminStats struct {
	TotalSuppliers        int `json:"total_suppliers"`
	PendingSuppliers      int `json:"pending_suppliers"`
	TotalDeliveryPartners int `json:"total_delivery_partners"`
	TotalCustomers        int `json:"total_customers"`
	TotalDeliveries       int `json:"total_deliveries"`
	CompletedDeliveries   int `json:"completed_deliveries"`
	PendingDeliveries     int `json:"pending_deliveries"`
	CompletionRate        int `json:"completion_rate"`
}

// SupplierSummary is one supplier's view of a single date.
type SupplierSummary struct {
	SupplierID          string  `json:"supplier_id"`
	Date                string  `json:"date"`
	DeliveryPartners    int     `json:"delivery_partners"`
	ActivePartners      int     `json:"active_partners"`
	Customers           int     `json:"customers"`
	Deliveries          int     `json:"deliveries"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	PendingDeliveries   int     `json:"pending_deliveries"`
	AllocatedQuantity   float64 `json:"allocated_quantity"`
	RemainingQuantity   float64 `json:"remaining_quantity"`
}

// PartnerProgress is a delivery partner's progress through one date.
type PartnerProgress struct {
	PartnerID           string  `json:"partner_id"`
	Date                string  `json:"date"`
	Allocated           float64 `json:"allocated"`
	Delivered           float64 `json:"delivered"`
	Remaining           float64 `json:"remaining"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	TotalCustomers      int     `json:"total_customers"`
	Percentage          int     `json:"percentage"`
}

// CustomerHistory is what a customer sees: the last week of deliveries and
// the next pending one today, if any.
type CustomerHistory struct {
	CustomerID string               `json:"customer_id"`
	Recent     []*delivery.Delivery `json:"recent"`
	Next       *delivery.Delivery   `json:"next,omitempty"`
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}

// ComputeAdminStats counts every supplier, partner, customer and delivery.
func ComputeAdminStats(suppliers []*supplier.Supplier, partners []*partner.DeliveryPartner, customers []*customer.Customer, deliveries []*delivery.Delivery) AdminStats {
	st := AdminStats{
		TotalSuppliers:        len(suppliers),
		TotalDeliveryPartners: len(partners),
		TotalCustomers:        len(customers),
		TotalDeliveries:       len(deliveries),
	}
	for _, s := range suppliers {
		if s.Status == supplier.StatusPending {
			st.PendingSuppliers++
		}
	}
	for _, d := range deliveries {
		switch d.Status {
		case delivery.StatusCompleted:
			st.CompletedDeliveries++
		case delivery.StatusPending:
			st.PendingDeliveries++
		}
	}
	st.CompletionRate = percent(float64(st.CompletedDeliveries), float64(st.TotalDeliveries))
	return st
}

func ComputeSupplierSummary(supplierID, date string, partners []*partner.DeliveryPartner, customers []*customer.Customer, allocations []*allocation.DailyAllocation, deliveries []*delivery.Delivery) SupplierSummary {
	sum := SupplierSummary{SupplierID: supplierID, Date: date}
	for _, p := range partners {
		if p.SupplierID != supplierID {
			continue
		}
		sum.DeliveryPartners++
		if p.Status == partner.StatusActive {
			sum.ActivePartners++
		}
	}
	for _, c := range customers {
		if c.SupplierID == supplierID {
			sum.Customers++
		}
	}
	for _, d := range deliveries {
		if d.SupplierID != supplierID || d.Date != date {
			continue
		}
		sum.Deliveries++
		switch d.Status {
		case delivery.StatusCompleted:
			sum.CompletedDeliveries++
		case delivery.StatusPending:
			sum.PendingDeliveries++
		}
	}
	for _, a := range allocations {
		if a.SupplierID == supplierID && a.Date == date {
			sum.AllocatedQuantity += a.AllocatedQuantity
			sum.RemainingQuantity += a.RemainingQuantity
		}
	}
	return sum
}

// ComputePartnerProgress derives remaining litres from the completed
// deliveries rather than from the stored remaining quantity.
func ComputePartnerProgress(p *partner.DeliveryPartner, date string, allocations []*allocation.DailyAllocation, deliveries []*delivery.Delivery) PartnerProgress {
	pr := PartnerProgress{PartnerID: p.ID, Date: date, TotalCustomers: len(p.AssignedCustomers)}
	for _, a := range allocations {
		if a.DeliveryPartnerID == p.ID && a.Date == date {
			pr.Allocated = a.AllocatedQuantity
			break
		}
	}
	for _, d := range deliveries {
		if d.DeliveryPartnerID == p.ID && d.Date == date && d.Status == delivery.StatusCompleted {
			pr.Delivered += d.Quantity
			pr.CompletedDeliveries++
		}
	}
	pr.Remaining = math.Max(0, pr.Allocated-pr.Delivered)
	pr.Percentage = percent(pr.Delivered, pr.Allocated)
	return pr
}

// ComputeCustomerHistory keeps deliveries dated within seven days before now
// (in loc), newest first.
func ComputeCustomerHistory(customerID string, now time.Time, loc *time.Location, deliveries []*delivery.Delivery) CustomerHistory {
	local := now.In(loc)
	today := local.Format(dateLayout)
	cutoff := local.AddDate(0, 0, -7).Format(dateLayout)

	h := CustomerHistory{CustomerID: customerID, Recent: []*delivery.Delivery{}}
	for _, d := range deliveries {
		if d.CustomerID != customerID {
			continue
		}
		// YYYY-MM-DD strings order like the dates they name.
		if d.Date >= cutoff {
			h.Recent = append(h.Recent, d.Clone())
		}
		if h.Next == nil && d.Date == today && d.Status == delivery.StatusPending {
			h.Next = d.Clone()
		}
	}
	sort.SliceStable(h.Recent, func(i, j int) bool { return h.Recent[i].Date > h.Recent[j].Date })
	return h
}

func (e *Engine) AdminStats() AdminStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ComputeAdminStats(e.suppliers, e.partners, e.customers, e.deliveries)
}

func (e *Engine) SupplierSummary(supplierID, date string) SupplierSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ComputeSupplierSummary(supplierID, date, e.partners, e.customers, e.allocations, e.deliveries)
}

func (e *Engine) PartnerProgress(partnerID, date string) (PartnerProgress, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p := e.findPartner(partnerID)
	if p == nil {
		return PartnerProgress{}, ErrNotFound
	}
	return ComputePartnerProgress(p, date, e.allocations, e.deliveries), nil
}

func (e *Engine) CustomerHistory(customerID string) CustomerHistory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ComputeCustomerHistory(customerID, e.now(), e.loc, e.deliveries)
}
