package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("k1", time.Hour)
	raw, expiresAt, err := m.Issue(User{ID: 9, Role: RoleRetail})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager("k1", time.Hour)
	raw, _, err := m.Issue(User{ID: 9, Role: RoleRetail})
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("k1", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(User{ID: 9})
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
