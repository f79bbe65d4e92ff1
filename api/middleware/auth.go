package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/orderledger-backend/api/responses"
	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/auth/session"
	"github.com/angelmondragon/orderledger-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
)

// Auth admits requests whose bearer token verifies and whose session is
// still live in Redis. A nil verifier skips the session lookup.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r.Context(), cfg, verifier, BearerToken(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := withIdentity(r.Context(), identity{
				username:   claims.Username,
				role:       claims.Role,
				customerID: claims.CustomerID,
				accessID:   claims.ID,
			})
			if logg != nil {
				ctx = logg.WithUsername(ctx, claims.Username)
				ctx = logg.WithRole(ctx, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, token string) (*pkgAuth.AccessTokenClaims, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier == nil {
		return claims, nil
	}

	live, err := verifier.HasSession(ctx, claims.ID, claims.Username)
	switch {
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case !live:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}
	return claims, nil
}

// BearerToken returns the credential from the Authorization header. The
// Bearer scheme is optional and matched case-insensitively.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, rest, found := strings.Cut(raw, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return raw
}
