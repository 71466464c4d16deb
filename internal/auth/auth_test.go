package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(nil), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin(&Identity{UserID: "u1", Role: models.RoleUser}), apperr.ErrForbidden)
	assert.NoError(t, RequireAdmin(&Identity{UserID: "a1", Role: models.RoleAdmin}))
}

func TestRequireUser(t *testing.T) {
	assert.ErrorIs(t, RequireUser(nil), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, RequireUser(&Identity{}), apperr.ErrUnauthenticated)
	assert.NoError(t, RequireUser(&Identity{UserID: "u1", Role: models.RoleUser}))
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	id := &Identity{UserID: "u1", Role: models.RoleAdmin}
	assert.Same(t, id, FromContext(WithIdentity(ctx, id)))
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, expiresAt, err := tokens.Issue(models.User{ID: "u1", Email: "a@b.c", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	raw, _, err := NewTokens("secret", time.Hour).Issue(models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err = expired.Issue(models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
