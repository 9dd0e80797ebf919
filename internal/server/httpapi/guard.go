package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// Protect admits only requests carrying a valid token for a live user
// and attaches that user to the request context.
func (s *Server) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.opts.Guard.Authenticate(r.Context(), auth.TokenFromRequest(r))
		if err != nil {
			writeError(r.Context(), w, s.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
	})
}

// Identify attaches the user when the request carries a valid token and
// lets anonymous requests through unchanged.
func (s *Server) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := s.opts.Guard.TryAuthenticate(r.Context(), auth.TokenFromRequest(r)); user != nil {
			r = r.WithContext(auth.WithPrincipal(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// Restrict must run after Protect.
func (s *Server) Restrict(roles ...models.Role) Middleware {
	allowed := models.Roles(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Require(auth.PrincipalFrom(r.Context()), allowed); err != nil {
				writeError(r.Context(), w, s.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
