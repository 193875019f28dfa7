package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AuthUser is the authenticated identity carried on the request context.
type AuthUser struct {
	ID      int64
	Email   string
	Name    string
	IsAdmin bool
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx. It returns nil if ctx
// is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}
	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

func IsAdmin(user *AuthUser) bool {
	return user != nil && user.IsAdmin
}

// RequireUser fails with ErrUnauthenticated when no user is on the context.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireAdmin fails with ErrUnauthenticated when no user is on the context
// and ErrForbidden when the user is not an admin.
func RequireAdmin(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsAdmin {
		return user, ErrForbidden
	}
	return user, nil
}
