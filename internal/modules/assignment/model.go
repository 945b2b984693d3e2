package assignment

import "time"

// Assignment links a customer to the delivery partner responsible for them.
type Assignment struct {
	ID                string    `json:"id"`
	DeliveryPartnerID string    `json:"delivery_partner_id"`
	CustomerID        string    `json:"customer_id"`
	AssignedAt        time.Time `json:"assigned_at"`
}

// GroupByPartner folds the flat relation into partnerID -> customer IDs,
// keeping row order within each partner.
func GroupByPartner(rows []*Assignment) map[string][]string {
	out := make(map[string][]string)
	for _, a := range rows {
		out[a.DeliveryPartnerID] = append(out[a.DeliveryPartnerID], a.CustomerID)
	}
	return out
}
