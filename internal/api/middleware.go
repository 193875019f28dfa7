// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/auth"
	"github.com/courtsidehq/courtside/internal/api/authz"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

type requestIDKey struct{}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		requestID, _ := r.Context().Value(requestIDKey{}).(string)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", requestID).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		logger := log.With().Str("request_id", requestID).Logger()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithAuth resolves the request's session, if any, and attaches the user to
// the context. It never rejects; endpoints that need a user enforce it.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.UserFromRequest(w, r)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load auth session")
			next.ServeHTTP(w, r)
			return
		}

		if user != nil {
			ctx := authz.ContextWithUser(r.Context(), user)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

// WithAdminAuth rejects requests whose context has no admin user.
func WithAdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())
		user := authz.UserFromContext(r.Context())
		if _, err := authz.RequireAdmin(r.Context()); err != nil {
			switch {
			case errors.Is(err, authz.ErrUnauthenticated):
				logger.Warn().Msg("Admin access denied: unauthenticated")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case errors.Is(err, authz.ErrForbidden):
				logEvent := logger.Warn()
				if user != nil {
					logEvent = logEvent.Int64("user_id", user.ID)
				}
				logEvent.Msg("Admin access denied: forbidden")
				http.Error(w, "Forbidden", http.StatusForbidden)
			default:
				logger.Error().Err(err).Msg("Admin access denied: error")
				http.Error(w, "Failed to authorize request", http.StatusInternalServerError)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
