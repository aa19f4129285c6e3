// Package api implements the HTTP surface of the itinerary service.
package api

import (
	"errors"
	"net/http"
	"strings"

	"itinopt/internal/auth"
)

const defaultTenant = "t_demo"

var errNoCredentials = errors.New("bearer token required")

// getPrincipal extracts tenant and role.
//   - A bearer token is checked with the configured verifier.
//   - In dev mode a request without a token falls back to the X-Tenant-Id and
//     X-Role headers (admin by default).
func (s *Server) getPrincipal(r *http.Request) (auth.Principal, error) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		return s.Auth.Verify(strings.TrimSpace(authz[len("Bearer "):]))
	}
	if s.Auth != nil && s.Auth.Mode != auth.ModeDev {
		return auth.Principal{}, errNoCredentials
	}
	tenant := r.Header.Get("X-Tenant-Id")
	role := strings.ToLower(r.Header.Get("X-Role"))
	if tenant == "" {
		tenant = defaultTenant
	}
	if role == "" {
		role = "admin"
	}
	return auth.Principal{Tenant: tenant, Role: role}, nil
}

// authenticated resolves the principal, stores its tenant in the request
// context and rejects the request with 401 when credentials are invalid.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.getPrincipal(r)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
			return
		}
		next(w, r.WithContext(withTenant(r.Context(), p.Tenant)))
	}
}

// adminOnly is authenticated plus a role check.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.getPrincipal(r)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
			return
		}
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		next(w, r.WithContext(withTenant(r.Context(), p.Tenant)))
	}
}
