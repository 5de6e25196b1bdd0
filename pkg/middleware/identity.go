package middleware

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
)

// Headers set by the API gateway after it has authenticated the caller.
const (
	UserIDHeader = "X-User-ID"
	RoleHeader   = "X-User-Role"
)

type identityKey struct{}

// Identity is the caller as asserted by the gateway. UserID is zero for
// anonymous callers.
type Identity struct {
	UserID int64
	Role   string
}

// Authenticated reports whether the caller carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID > 0
}

// IdentityFromHeaders reads X-User-ID and X-User-Role into the request
// context. Requests without X-User-ID pass through as anonymous; a malformed
// X-User-ID is rejected with 401.
func IdentityFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id Identity
		if raw := strings.TrimSpace(r.Header.Get(UserIDHeader)); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid "+UserIDHeader+" header"), nil)
				return
			}
			id.UserID = userID
			id.Role = strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader)))
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, if the middleware ran.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserIDFromContext returns the authenticated user id or 0.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

// RequireUser rejects anonymous callers with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, _ := IdentityFromContext(r.Context()); !id.Authenticated() {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous callers with 401 and callers whose role is
// not in roles with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			if !id.Authenticated() {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if !slices.Contains(roles, id.Role) {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
