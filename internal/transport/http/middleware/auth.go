package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"staffportal/internal/platform/authsvc"
)

// Auth resolves the bearer token to an identity and stores it on the request
// context. Requests without a valid token pass through unauthenticated;
// handlers that require an identity check with GetIdentity.
func Auth(svc *authsvc.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			uid, err := svc.ParseSessionToken(parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := svc.IdentityByID(r.Context(), uid)
			if errors.Is(err, authsvc.ErrNotFound) {
				// Guest sessions have no registry row.
				ident = authsvc.Identity{ID: uid, Anonymous: true}
			} else if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (authsvc.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(authsvc.Identity)
	return ident, ok
}
