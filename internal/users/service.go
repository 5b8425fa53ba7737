package users

import (
	"context"
	"strings"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns the users matching filters. Password hashes never leave
// this package.
func (s *Service) ListUsers(ctx context.Context, f Filters) ([]auth.User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, &httpx.ValidationError{
			Message: "Invalid query parameters",
			Fields:  []httpx.FieldError{{Field: "role", Message: "must be one of: admin, wholesale, retail"}},
		}
	}
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]auth.User, 0, len(all))
	for _, u := range all {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if needle != "" && !matches(u, needle) {
			continue
		}
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, nil
}

// Stats counts users per role.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, u := range all {
		st.Total++
		switch u.Role {
		case auth.RoleAdmin:
			st.Admin++
		case auth.RoleWholesale:
			st.Wholesale++
		case auth.RoleRetail:
			st.Retail++
		}
	}
	return st, nil
}

func matches(u auth.User, needle string) bool {
	for _, field := range []string{u.Username, u.Email, u.FirstName, u.LastName, u.CompanyName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
