package middleware

import (
	"context"
	"net/http"

	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
)

// RequireAuth rejects requests that carry no resolved identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks the caller's profile document for the admin role.
// The role lives on the profile, not the token, so a role change takes
// effect on the next request without reissuing tokens.
func RequireAdmin(docs docstore.Store, usersCollection string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := GetIdentity(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !IsAdmin(r.Context(), docs, usersCollection, ident.ID) {
				api.Fail(w, http.StatusForbidden, "forbidden", "admin access required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAdmin reports whether the identity's profile carries the admin role.
// Missing profiles count as non-admin.
func IsAdmin(ctx context.Context, docs docstore.Store, usersCollection, uid string) bool {
	doc, err := docs.GetOne(ctx, usersCollection, uid)
	if err != nil {
		return false
	}
	return doc.String("role") == "admin"
}
