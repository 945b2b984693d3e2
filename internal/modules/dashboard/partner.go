package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

func partnerID(r *http.Request) string {
	return ClaimsFrom(r.Context()).Subject
}

func (h *Handler) partnerProgress(w http.ResponseWriter, r *http.Request) {
	pr, err := h.engine.PartnerProgress(partnerID(r), h.date(r))
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, pr)
}

func (h *Handler) partnerCustomers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.engine.Partner(partnerID(r))
	if !ok {
		fail(w, reconcile.ErrNotFound)
		return
	}
	out := []*customer.Customer{}
	for _, id := range p.AssignedCustomers {
		if c, ok := h.engine.Customer(id); ok {
			out = append(out, c)
		}
	}
	respond(w, http.StatusOK, out)
}

func (h *Handler) partnerDeliveries(w http.ResponseWriter, r *http.Request) {
	pid, date := partnerID(r), h.date(r)
	out := []*delivery.Delivery{}
	for _, d := range h.engine.Deliveries() {
		if d.DeliveryPartnerID == pid && d.Date == date {
			out = append(out, d)
		}
	}
	respond(w, http.StatusOK, out)
}

// ownDelivery loads a delivery and checks it is on the calling partner's route.
func (h *Handler) ownDelivery(r *http.Request) (*delivery.Delivery, error) {
	id := chi.URLParam(r, "id")
	d, ok := h.engine.Delivery(id)
	if !ok || d.DeliveryPartnerID != partnerID(r) {
		return nil, fmt.Errorf("delivery %s: %w", id, reconcile.ErrNotFound)
	}
	return d, nil
}

func (h *Handler) customerName(id string) string {
	if c, ok := h.engine.Customer(id); ok {
		return c.Name
	}
	return id
}

// completeDelivery refuses to deliver more than the partner has left for the
// delivery date.
func (h *Handler) completeDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.ownDelivery(r)
	if err != nil {
		fail(w, err)
		return
	}
	if d.Status != delivery.StatusCompleted {
		pr, err := h.engine.PartnerProgress(d.DeliveryPartnerID, d.Date)
		if err != nil {
			fail(w, err)
			return
		}
		if pr.Remaining < d.Quantity {
			respond(w, http.StatusConflict, map[string]string{
				"error": fmt.Sprintf("insufficient milk quantity: trying to deliver %gL, remaining %gL", d.Quantity, pr.Remaining),
			})
			return
		}
	}

	notes := fmt.Sprintf("Delivered %gL to %s on %s", d.Quantity, h.customerName(d.CustomerID), d.Date)
	updated, err := h.engine.UpdateDeliveryStatus(r.Context(), d.ID, delivery.StatusCompleted, notes)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

type failRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) failDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.ownDelivery(r)
	if err != nil {
		fail(w, err)
		return
	}
	var req failRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	notes := fmt.Sprintf("Failed delivery to %s: %s", h.customerName(d.CustomerID), req.Reason)
	updated, err := h.engine.UpdateDeliveryStatus(r.Context(), d.ID, delivery.StatusCancelled, notes)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

type quantityRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

func (h *Handler) adjustQuantity(w http.ResponseWriter, r *http.Request) {
	d, err := h.ownDelivery(r)
	if err != nil {
		fail(w, err)
		return
	}
	var req quantityRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	updated, err := h.engine.UpdateDeliveryQuantity(r.Context(), d.ID, req.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, updated)
}
