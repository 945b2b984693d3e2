package dashboard

import (
	"net/http"

	"github.com/georgemunganga/milkchain-backend/internal/modules/auth"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

type loginRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin supplier delivery_partner customer"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	session, err := h.auth.Login(r.Context(), auth.Role(req.Role), req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, session)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	session, ok, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	respond(w, http.StatusOK, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req reconcile.NewSupplier
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	s, err := h.engine.AddSupplier(r.Context(), req)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, s)
}
