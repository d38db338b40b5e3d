package orgrbac

import (
	"context"
	"log/slog"
	"net/http"
)

// RoleResolver supplies the roles of the current request's principal. The
// boolean result is false when no authenticated principal is present.
type RoleResolver interface {
	ResolveRoles(ctx context.Context) (GlobalRole, OrgRole, bool)
}

// Middleware wires organization permission checks for HTTP handlers.
type Middleware struct {
	Resolver RoleResolver
	Logger   *slog.Logger
}

// Require ensures the current principal holds the organization permission.
func (m Middleware) Require(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			global, org, ok := m.Resolver.ResolveRoles(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !HasOrgPermission(global, org, perm) {
				if m.Logger != nil {
					m.Logger.Warn("org permission denied",
						slog.String("permission", string(perm)),
						slog.String("org_role", string(org)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobal ensures the current principal holds a platform permission.
func (m Middleware) RequireGlobal(perm GlobalPermission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			global, _, ok := m.Resolver.ResolveRoles(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !HasGlobalPermission(global, perm) {
				if m.Logger != nil {
					m.Logger.Warn("global permission denied",
						slog.String("permission", string(perm)),
						slog.String("role", string(global)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
