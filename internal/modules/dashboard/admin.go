package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.AdminStats())
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.Suppliers())
}

func (h *Handler) pendingSuppliers(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.engine.PendingSuppliers())
}

func (h *Handler) approveSupplier(w http.ResponseWriter, r *http.Request) {
	h.setSupplierStatus(w, r, supplier.StatusApproved)
}

func (h *Handler) rejectSupplier(w http.ResponseWriter, r *http.Request) {
	h.setSupplierStatus(w, r, supplier.StatusRejected)
}

func (h *Handler) setSupplierStatus(w http.ResponseWriter, r *http.Request, status supplier.Status) {
	s, err := h.engine.UpdateSupplierStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

type syncEntry struct {
	reconcile.EntityRef
	State reconcile.SyncState `json:"state"`
}

func (h *Handler) syncStates(w http.ResponseWriter, r *http.Request) {
	out := []syncEntry{}
	for ref, state := range h.engine.SyncStates() {
		out = append(out, syncEntry{EntityRef: ref, State: state})
	}
	respond(w, http.StatusOK, out)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Reconcile(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Refresh(r.Context()); err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, h.engine.Status())
}
