package dashboard

import (
	"net/http"

	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
)

// customerID resolves the caller to a registered customer by email, falling
// back to the token subject for the demo account.
func (h *Handler) customerID(r *http.Request) string {
	claims := ClaimsFrom(r.Context())
	for _, c := range h.engine.Customers() {
		if claims.Email != "" && c.Email == claims.Email {
			return c.ID
		}
	}
	return claims.Subject
}

func (h *Handler) customerHistory(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.CustomerHistory(h.customerID(r)))
}

type todayResponse struct {
	Date       string               `json:"date"`
	Deliveries []*delivery.Delivery `json:"deliveries"`
	Next       *delivery.Delivery   `json:"next"`
}

func (h *Handler) customerToday(w http.ResponseWriter, r *http.Request) {
	hist := h.engine.CustomerHistory(h.customerID(r))
	resp := todayResponse{Date: h.engine.Today(), Deliveries: []*delivery.Delivery{}, Next: hist.Next}
	for _, d := range hist.Recent {
		if d.Date == resp.Date {
			resp.Deliveries = append(resp.Deliveries, d)
		}
	}
	respond(w, http.StatusOK, resp)
}
