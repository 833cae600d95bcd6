// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/loancalc/internal/models"
)

// HeaderAuthToken carries the session token issued at login.
const HeaderAuthToken = "x-auth-token"

type ctxKey string

const identityKey ctxKey = "identity"

// TokenVerifier decodes a raw token into the identity it was issued for.
type TokenVerifier interface {
	Verify(raw string) (models.Identity, error)
}

// TokenAuth rejects requests without a valid x-auth-token header with 401.
//
// On success the decoded identity is stored in the request context and can be
// read downstream with GetIdentityFromContext.
func TokenAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderAuthToken)
			if raw == "" {
				writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			id, err := verifier.Verify(raw)
			if err != nil {
				writeMsg(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin answers 403 unless the authenticated caller is an admin.
// It must run after TokenAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentityFromContext(r.Context())
		if !ok {
			writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		if !id.IsAdmin() {
			writeMsg(w, http.StatusForbidden, "Access denied: admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentityFromContext extracts the caller stored by TokenAuth.
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
