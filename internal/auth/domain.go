package auth

import (
	"context"
	"errors"
	"time"

	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// Role selects the price column a customer sees and gates admin routes.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleWholesale Role = "wholesale"
	RoleRetail    Role = "retail"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWholesale, RoleRetail:
		return true
	}
	return false
}

// User represents a customer or staff account. Role is fixed at registration.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CompanyName  string    `json:"companyName,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may use back-office routes.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = httpx.NotFound("User not found")
	// ErrUsernameTaken is returned by repositories on a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials covers unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = httpx.Wrap(httpx.ErrUnauthorized, "Invalid username or password")
)

// RegisterInput is the payload accepted by POST /api/register.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3"`
	Password    string `json:"password" validate:"required,min=6"`
	Email       string `json:"email" validate:"required,email"`
	Role        Role   `json:"role" validate:"required,oneof=retail wholesale"`
	FirstName   string `json:"firstName" validate:"required,min=2"`
	LastName    string `json:"lastName" validate:"required,min=2"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// Credentials is the payload accepted by the login and token endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey{}).(User)
	return user, ok
}
