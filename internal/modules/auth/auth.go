package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Role selects the dashboard a user lands on.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupplier Role = "supplier"
	RolePartner  Role = "delivery_partner"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupplier, RolePartner, RoleCustomer:
		return true
	}
	return false
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is the logged-in identity kept under the currentUser cache key.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	SupplierID string `json:"supplier_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Session is a user with the token that identifies them.
type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are carried in the session token.
type Claims struct {
	Role       Role   `json:"role"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SupplierID string `json:"supplier_id,omitempty"`
	jwt.StandardClaims
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, role Role, email, password string) (*Session, error)
	// CurrentUser returns the last session stored by Login, if any.
	CurrentUser(ctx context.Context) (*Session, bool, error)
	Logout(ctx context.Context) error
	ParseToken(token string) (*Claims, error)
}
