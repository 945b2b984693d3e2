package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/milkchain-backend/internal/cache"
	"github.com/georgemunganga/milkchain-backend/internal/config"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
)

// PartnerDirectory lists the delivery partners that may log in.
type PartnerDirectory interface {
	Partners() []*partner.DeliveryPartner
}

type demoAccount struct {
	user User
	hash []byte
}

type service struct {
	jwtKey   []byte
	ttl      time.Duration
	demo     map[Role]demoAccount
	partners PartnerDirectory
	store    cache.Store
	now      func() time.Time
}

// NewService hashes the configured demo passwords and returns a Service that
// checks admin, supplier and customer logins against them. Partners log in
// with the email and password their supplier registered.
func NewService(cfg config.AuthConfig, partners PartnerDirectory, store cache.Store) (Service, error) {
	s := &service{
		jwtKey:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		demo:     make(map[Role]demoAccount),
		partners: partners,
		store:    store,
		now:      time.Now,
	}
	for _, u := range cfg.DemoUsers {
		role := Role(u.Role)
		if !role.Valid() || role == RolePartner {
			return nil, fmt.Errorf("demo user %s: unsupported role %q", u.Email, u.Role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash demo password: %w", err)
		}
		id := u.ID
		if id == "" {
			id = string(role) + "-1"
		}
		s.demo[role] = demoAccount{
			user: User{ID: id, Name: u.Name, Email: u.Email, Role: role, SupplierID: u.SupplierID},
			hash: hash,
		}
	}
	return s, nil
}

func (s *service) Login(ctx context.Context, role Role, email, password string) (*Session, error) {
	var user User
	switch role {
	case RolePartner:
		u, ok := s.findPartner(email, password)
		if !ok {
			return nil, ErrInvalidCredentials
		}
		user = u
	case RoleAdmin, RoleSupplier, RoleCustomer:
		acct, ok := s.demo[role]
		if !ok || acct.user.Email != email {
			return nil, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		user = acct.user
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	expirationTime := s.now().Add(s.ttl)
	claims := &Claims{
		Role:       user.Role,
		Name:       user.Name,
		Email:      user.Email,
		SupplierID: user.SupplierID,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  s.now().Unix(),
			ExpiresAt: expirationTime.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, err
	}

	session := &Session{User: user, Token: tokenString, ExpiresAt: expirationTime}
	if err := cache.SetJSON(ctx, s.store, cache.KeyCurrentUser, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Passwords are compared in plaintext, as they are stored.
func (s *service) findPartner(email, password string) (User, bool) {
	if s.partners == nil {
		return User{}, false
	}
	for _, p := range s.partners.Partners() {
		if p.Email == email && p.Password == password {
			return User{
				ID:         p.ID,
				Name:       p.Name,
				Email:      p.Email,
				Role:       RolePartner,
				SupplierID: p.SupplierID,
				Phone:      p.Phone,
			}, true
		}
	}
	return User{}, false
}

func (s *service) CurrentUser(ctx context.Context) (*Session, bool, error) {
	var session Session
	ok, err := cache.GetJSON(ctx, s.store, cache.KeyCurrentUser, &session)
	if err != nil || !ok {
		return nil, false, err
	}
	// Logout leaves an empty document behind.
	if session.Token == "" {
		return nil, false, nil
	}
	return &session, true, nil
}

func (s *service) Logout(ctx context.Context) error {
	return s.store.Set(ctx, cache.KeyCurrentUser, "{}")
}

func (s *service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
