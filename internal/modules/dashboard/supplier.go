package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

// The supplier dashboard acts for the supplier named in the token subject.
func supplierID(r *http.Request) string {
	return ClaimsFrom(r.Context()).Subject
}

func (h *Handler) supplierSummary(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.SupplierSummary(supplierID(r), h.date(r)))
}

func (h *Handler) supplierPartners(w http.ResponseWriter, r *http.Request) {
	sid := supplierID(r)
	out := []*partner.DeliveryPartner{}
	for _, p := range h.engine.Partners() {
		if p.SupplierID == sid {
			out = append(out, p)
		}
	}
	respond(w, http.StatusOK, out)
}

type addPartnerRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required"`
	VehicleNumber string `json:"vehicle_number"`
	Password      string `json:"password" validate:"required,min=6"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *Handler) addPartner(w http.ResponseWriter, r *http.Request) {
	var req addPartnerRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p := h.engine.AddDeliveryPartner(r.Context(), reconcile.NewPartner{
		SupplierID:    supplierID(r),
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		VehicleNumber: req.VehicleNumber,
		Password:      req.Password,
		Status:        req.Status,
	})
	respond(w, http.StatusCreated, p)
}

// ownPartner loads partnerID and checks it belongs to the calling supplier.
func (h *Handler) ownPartner(r *http.Request, partnerID string) (*partner.DeliveryPartner, error) {
	p, ok := h.engine.Partner(partnerID)
	if !ok || p.SupplierID != supplierID(r) {
		return nil, fmt.Errorf("delivery partner %s: %w", partnerID, reconcile.ErrNotFound)
	}
	return p, nil
}

type assignRequest struct {
	CustomerIDs []string `json:"customer_ids" validate:"required,dive,required"`
}

func (h *Handler) assignCustomers(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownPartner(r, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	var req assignRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	for _, id := range req.CustomerIDs {
		c, ok := h.engine.Customer(id)
		if !ok || c.SupplierID != p.SupplierID {
			fail(w, fmt.Errorf("customer %s: %w", id, reconcile.ErrNotFound))
			return
		}
	}
	if err := h.engine.AssignCustomers(r.Context(), p.ID, req.CustomerIDs); err != nil {
		fail(w, err)
		return
	}
	updated, _ := h.engine.Partner(p.ID)
	respond(w, http.StatusOK, updated)
}

func (h *Handler) supplierCustomers(w http.ResponseWriter, r *http.Request) {
	sid := supplierID(r)
	out := []*customer.Customer{}
	for _, c := range h.engine.Customers() {
		if c.SupplierID == sid {
			out = append(out, c)
		}
	}
	respond(w, http.StatusOK, out)
}

type addCustomerRequest struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Phone         string  `json:"phone" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	DailyQuantity float64 `json:"daily_quantity" validate:"gt=0"`
}

func (h *Handler) addCustomer(w http.ResponseWriter, r *http.Request) {
	var req addCustomerRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	c := h.engine.AddCustomer(r.Context(), reconcile.NewCustomer{
		SupplierID:    supplierID(r),
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		DailyQuantity: req.DailyQuantity,
	})
	respond(w, http.StatusCreated, c)
}

func (h *Handler) supplierAllocations(w http.ResponseWriter, r *http.Request) {
	sid, date := supplierID(r), r.URL.Query().Get("date")
	out := []*allocation.DailyAllocation{}
	for _, a := range h.engine.Allocations() {
		if a.SupplierID == sid && (date == "" || a.Date == date) {
			out = append(out, a)
		}
	}
	respond(w, http.StatusOK, out)
}

type addAllocationRequest struct {
	DeliveryPartnerID string  `json:"delivery_partner_id" validate:"required"`
	Date              string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	AllocatedQuantity float64 `json:"allocated_quantity" validate:"gt=0"`
}

type allocationResponse struct {
	Allocation *allocation.DailyAllocation `json:"allocation"`
	Deliveries []*delivery.Delivery        `json:"deliveries"`
}

// addAllocation refuses partners without customers, since the allocation
// would generate no deliveries.
func (h *Handler) addAllocation(w http.ResponseWriter, r *http.Request) {
	var req addAllocationRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.ownPartner(r, req.DeliveryPartnerID)
	if err != nil {
		fail(w, err)
		return
	}
	if len(p.AssignedCustomers) == 0 {
		respond(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "delivery partner has no assigned customers, assign customers first",
		})
		return
	}
	if req.Date == "" {
		req.Date = h.engine.Today()
	}
	a, created := h.engine.AddDailyAllocation(r.Context(), reconcile.NewAllocation{
		SupplierID:        p.SupplierID,
		DeliveryPartnerID: p.ID,
		Date:              req.Date,
		AllocatedQuantity: req.AllocatedQuantity,
	})
	if created == nil {
		created = []*delivery.Delivery{}
	}
	respond(w, http.StatusCreated, allocationResponse{Allocation: a, Deliveries: created})
}

func (h *Handler) supplierDeliveries(w http.ResponseWriter, r *http.Request) {
	sid, date := supplierID(r), h.date(r)
	out := []*delivery.Delivery{}
	for _, d := range h.engine.Deliveries() {
		if d.SupplierID == sid && d.Date == date {
			out = append(out, d)
		}
	}
	respond(w, http.StatusOK, out)
}

type addDeliveryRequest struct {
	DeliveryPartnerID string  `json:"delivery_partner_id" validate:"required"`
	CustomerID        string  `json:"customer_id" validate:"required"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
	Date              string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime     string  `json:"scheduled_time"`
	Notes             string  `json:"notes"`
}

func (h *Handler) addDelivery(w http.ResponseWriter, r *http.Request) {
	var req addDeliveryRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.ownPartner(r, req.DeliveryPartnerID)
	if err != nil {
		fail(w, err)
		return
	}
	if req.Date == "" {
		req.Date = h.engine.Today()
	}
	d, err := h.engine.AddDelivery(r.Context(), reconcile.NewDelivery{
		SupplierID:        p.SupplierID,
		DeliveryPartnerID: p.ID,
		CustomerID:        req.CustomerID,
		Quantity:          req.Quantity,
		Date:              req.Date,
		ScheduledTime:     req.ScheduledTime,
		Notes:             req.Notes,
	})
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, d)
}
