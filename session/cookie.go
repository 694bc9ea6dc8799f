package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type (
	ctxKey   struct{}
	freshKey struct{}
)

const cookieMaxAge = 365 * 24 * 60 * 60

// Middleware gives every browser a stable session id cookie.
func Middleware(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, fresh := "", false
			if c, err := r.Cookie(cookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id, fresh = uuid.NewString(), true
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, id)
			ctx = context.WithValue(ctx, freshKey{}, fresh)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// IsNew reports whether the session id was issued by this very request, so
// nothing can be stored under it yet.
func IsNew(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}
