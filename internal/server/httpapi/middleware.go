package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/threeline/internal/netx"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// authenticated rejects requests without a valid bearer access token and
// stores the user id in the request context.
func (s *HTTPServer) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := netx.BearerToken(r)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "missing token")
			return
		}

		id, err := s.users.Authenticate(token)
		if err != nil {
			s.logger.Debug(r.Context(), "token rejected", "error", err)
			s.writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
