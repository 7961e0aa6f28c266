package middleware

import (
	"context"
	"net/http"
	"time"
)

// ContextTimeout bounds the request context, and with it every store call
// made on behalf of the request. A non-positive timeout disables it.
func ContextTimeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
