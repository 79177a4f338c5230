package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dom/todo-api/internal/api/respond"
	"github.com/dom/todo-api/internal/auth"
	"github.com/dom/todo-api/internal/domain"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Auth rejects requests without a valid bearer access token. All failures
// produce the same 401; the specific reason is only logged.
func Auth(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(r.Header.Get("Authorization"), time.Now())
			if err != nil {
				log.Printf("ERROR [middleware.Auth] %v", err)
				respond.Error(w, r, domain.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (auth.Subject, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Subject)
	return identity, ok
}
