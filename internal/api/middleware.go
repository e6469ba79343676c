package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/campusqa/portal/internal/stats"
	"github.com/campusqa/portal/internal/token"
)

func (s *PortalApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware verifies the request's bearer token and attaches the
// verified identity to the request context. Every failure mode is a
// uniform 401; the specific reason (missing, malformed, expired,
// tampered) is logged only, so callers can't probe token state.
func (s *PortalApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			s.stats.Incr(stats.AuthFailures)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ident, err := s.tokens.Verify(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				s.log.Printf("rejected expired token for %s", r.URL.Path)
			case errors.Is(err, token.ErrTokenSignatureInvalid):
				s.log.Printf("rejected token with invalid signature for %s", r.URL.Path)
			default:
				s.log.Printf("rejected malformed token for %s", r.URL.Path)
			}

			s.stats.Incr(stats.AuthFailures)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ctx := WithIdentity(r.Context(), ident)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}

// requireRole permits the request iff the authenticated identity's role
// is literally in roles. The model is flat: ADMIN has no implicit
// access and must be listed wherever it is allowed. Authentication
// failure takes precedence over authorization failure.
func (s *PortalApp) requireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := RequestIdentity(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if !slices.Contains(roles, ident.Role) {
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next(w, r)
	}
}
