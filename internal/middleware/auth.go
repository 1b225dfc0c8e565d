package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/nzoschke/apartments/internal/ctxkeys"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/render"
	"github.com/nzoschke/apartments/internal/service"
)

// Authenticator resolves a session token to its user, or nil.
type Authenticator interface {
	LoginWithToken(ctx context.Context, token string) *model.User
}

// AuthMiddleware puts the user behind the Authorization header into the
// context. Requests without a valid session continue anonymously.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user := auth.LoginWithToken(r.Context(), token)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Never carry the hash past this point
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <token>" and a bare token.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return header
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			render.Error(w, r, service.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

// RequireRole rejects anonymous requests with 401 and other roles with 403.
func RequireRole(roles ...model.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if !slices.Contains(roles, user.Role) {
				render.Error(w, r, service.ErrForbidden)
				return
			}
			next(w, r)
		})
	}
}
