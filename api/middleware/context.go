package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
)

type identityKey struct{}

// identity is what Auth learned about the caller from its token.
type identity struct {
	username   string
	role       enums.UserRole
	customerID *int64
	accessID   string
}

func withIdentity(ctx context.Context, id identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

func UsernameFromContext(ctx context.Context) string { return identityFrom(ctx).username }

func RoleFromContext(ctx context.Context) enums.UserRole { return identityFrom(ctx).role }

// CustomerIDFromContext returns the customer record id carried by the token,
// nil when the user had no record at login.
func CustomerIDFromContext(ctx context.Context) *int64 { return identityFrom(ctx).customerID }

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string { return identityFrom(ctx).accessID }

// ActorFromContext builds the authenticated actor for service calls.
func ActorFromContext(ctx context.Context) pkgAuth.Actor {
	id := identityFrom(ctx)
	return pkgAuth.Actor{Username: id.username, Role: id.role}
}

// WithActor injects a username and role, as Auth does for a verified token.
func WithActor(ctx context.Context, username string, role enums.UserRole) context.Context {
	id := identityFrom(ctx)
	id.username, id.role = username, role
	return withIdentity(ctx, id)
}
