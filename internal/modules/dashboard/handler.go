// Package dashboard exposes the role-based HTTP entry points over the
// reconciliation engine.
package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/georgemunganga/milkchain-backend/internal/modules/auth"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

// Handler serves every dashboard route.
type Handler struct {
	engine   *reconcile.Engine
	auth     auth.Service
	validate *validator.Validate
}

func NewHandler(engine *reconcile.Engine, authService auth.Service) *Handler {
	return &Handler{engine: engine, auth: authService, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)    // POST /api/v1/auth/login
		r.Get("/auth/session", h.session) // GET  /api/v1/auth/session
		r.Post("/auth/logout", h.logout)  // POST /api/v1/auth/logout
		r.Post("/suppliers", h.signup)    // POST /api/v1/suppliers
		r.Get("/status", h.status)        // GET  /api/v1/status

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(h.auth, auth.RoleAdmin))
			r.Get("/stats", h.adminStats)
			r.Get("/suppliers", h.listSuppliers)
			r.Get("/suppliers/pending", h.pendingSuppliers)
			r.Post("/suppliers/{id}/approve", h.approveSupplier)
			r.Post("/suppliers/{id}/reject", h.rejectSupplier)
			r.Get("/sync", h.syncStates)
			r.Post("/sync", h.reconcile)
			r.Post("/refresh", h.refresh)
		})

		// Date-scoped reads take ?date=YYYY-MM-DD and default to today.
		r.Route("/supplier", func(r chi.Router) {
			r.Use(RequireRole(h.auth, auth.RoleSupplier))
			r.Get("/summary", h.supplierSummary)
			r.Get("/partners", h.supplierPartners)
			r.Post("/partners", h.addPartner)
			r.Put("/partners/{id}/customers", h.assignCustomers)
			r.Get("/customers", h.supplierCustomers)
			r.Post("/customers", h.addCustomer)
			r.Get("/allocations", h.supplierAllocations)
			r.Post("/allocations", h.addAllocation)
			r.Get("/deliveries", h.supplierDeliveries)
			r.Post("/deliveries", h.addDelivery)
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(RequireRole(h.auth, auth.RolePartner))
			r.Get("/progress", h.partnerProgress)
			r.Get("/customers", h.partnerCustomers)
			r.Get("/deliveries", h.partnerDeliveries)
			r.Post("/deliveries/{id}/complete", h.completeDelivery)
			r.Post("/deliveries/{id}/fail", h.failDelivery)
			r.Patch("/deliveries/{id}/quantity", h.adjustQuantity)
		})

		r.Route("/customer", func(r chi.Router) {
			r.Use(RequireRole(h.auth, auth.RoleCustomer))
			r.Get("/history", h.customerHistory)
			r.Get("/today", h.customerToday)
		})
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.Status())
}

// decode reads a JSON body into v and runs its validate tags.
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

// date returns the ?date= query value, or today.
func (h *Handler) date(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return h.engine.Today()
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, reconcile.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, reconcile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(w http.ResponseWriter, err error) {
	respond(w, statusFor(err), map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, err error) {
	respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
