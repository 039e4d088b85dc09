// Package request copies chi's request ID into requestcontext so services and
// loggers can read it without depending on chi.
package request

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"helpinghands/pkg/requestcontext"
)

// ID must run after chi's RequestID middleware.
func ID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimw.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(chimw.RequestIDHeader, reqID)
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
