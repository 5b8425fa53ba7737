package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/platform/httpx"
	"github.com/greengrocer/storefront/internal/store/memory"
	"github.com/greengrocer/storefront/internal/users"
)

func seeded(t *testing.T) *users.Service {
	t.Helper()
	store := memory.New()
	for _, u := range []auth.User{
		{Username: "admin", Email: "admin@greengrocer.com", Role: auth.RoleAdmin, PasswordHash: "h"},
		{Username: "bistro", Email: "chef@bistro.test", Role: auth.RoleWholesale, CompanyName: "Green Bistro", PasswordHash: "h"},
		{Username: "deli", Email: "deli@example.com", Role: auth.RoleWholesale, PasswordHash: "h"},
		{Username: "mia", Email: "mia@example.com", Role: auth.RoleRetail, FirstName: "Mia", PasswordHash: "h"},
	} {
		_, err := store.CreateUser(context.Background(), u)
		require.NoError(t, err)
	}
	return users.NewService(store)
}

func TestListUsersStripsHashes(t *testing.T) {
	svc := seeded(t)

	list, err := svc.ListUsers(context.Background(), users.Filters{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, u := range list {
		assert.Empty(t, u.PasswordHash, u.Username)
	}
}

func TestListUsersFilters(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	trade, err := svc.ListUsers(ctx, users.Filters{Role: auth.RoleWholesale})
	require.NoError(t, err)
	assert.Len(t, trade, 2)

	found, err := svc.ListUsers(ctx, users.Filters{Search: " BISTRO"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bistro", found[0].Username)

	none, err := svc.ListUsers(ctx, users.Filters{Role: auth.RoleRetail, Search: "bistro"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListUsers(ctx, users.Filters{Role: "owner"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStats(t *testing.T) {
	st, err := seeded(t).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users.Stats{Total: 4, Admin: 1, Wholesale: 2, Retail: 1}, st)
}
