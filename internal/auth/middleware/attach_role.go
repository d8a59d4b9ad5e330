package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prmpt-academy/prmpt-api/internal/rbac"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

// UserRecorder records the caller and returns its stored profile.
type UserRecorder interface {
	Ensure(ctx context.Context, id, email string) (users.User, error)
}

// AttachRole replaces the claimed role with the stored one. A stored role
// always wins; with allowClaimFallback the token's app_metadata role is used
// when none is stored (dev/offline). A lookup failure is a 503.
func AttachRole(store UserRecorder, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := IdentityFromContext(ctx)
			if !ok {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			claimRole := rbac.RoleFromContext(ctx)

			u, err := store.Ensure(ctx, id.UserID, id.Email)
			if err != nil {
				slog.ErrorContext(ctx, "role lookup failed", "user_id", id.UserID, "err", err)
				writeDetail(w, http.StatusServiceUnavailable, "User directory unavailable")
				return
			}

			role := u.Role
			if role == "" && allowClaimFallback {
				role = claimRole
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
