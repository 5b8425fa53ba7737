package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// Register validates input and creates a retail or wholesale account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := httpx.Validate("Invalid registration data", in); err != nil {
		return User{}, err
	}
	if _, err := s.repo.GetUserByUsername(ctx, in.Username); err == nil {
		return User{}, usernameTaken()
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Role:         in.Role,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	})
	if errors.Is(err, ErrUsernameTaken) {
		return User{}, usernameTaken()
	}
	return user, err
}

func usernameTaken() error {
	return &httpx.ValidationError{
		Message: "Username already exists",
		Fields:  []httpx.FieldError{{Field: "username", Message: "is already taken"}},
	}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken authenticates the credentials and signs a bearer token.
func (s *Service) IssueToken(ctx context.Context, creds Credentials) (string, time.Time, error) {
	user, err := s.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.Issue(user)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}
