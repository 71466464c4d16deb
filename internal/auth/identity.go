package auth

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// Identity is the authenticated caller. A nil *Identity means the request is anonymous.
type Identity struct {
	UserID string
	Role   models.Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// RequireUser fails with an unauthenticated error when there is no caller.
func RequireUser(id *Identity) error {
	if id == nil || id.UserID == "" {
		return apperr.Unauthenticated()
	}
	return nil
}

// RequireAdmin is the single admin check used by every privileged operation.
func RequireAdmin(id *Identity) error {
	if err := RequireUser(id); err != nil {
		return err
	}
	if !id.IsAdmin() {
		return apperr.Forbidden()
	}
	return nil
}
