package alarm

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-orchestrator/internal/auth"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
)

// requestIDHeader carries the correlation id in requests and responses.
const requestIDHeader = "X-Request-Id"

// requestIDMiddleware assigns a correlation id and scopes the request logger
// with it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)

		ctx := logger.WithKV(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverMiddleware converts handler panics into 500 responses.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorKV(r.Context(), "Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec)

				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter

	// statusCode is the first code passed to WriteHeader.
	statusCode int
}

// WriteHeader records the status code before delegating.
func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}

	r.ResponseWriter.WriteHeader(statusCode)
}

// loggingMiddleware emits one structured entry per completed request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		kvs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.ErrorKV(r.Context(), "Request completed", kvs...)
		case statusCode >= http.StatusBadRequest:
			logger.WarnKV(r.Context(), "Request completed", kvs...)
		default:
			logger.InfoKV(r.Context(), "Request completed", kvs...)
		}
	})
}

// bearerToken extracts the raw credential from the Authorization header.
// Returns an empty string when no bearer credential is present.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// requireAuth rejects requests without a verifiable credential and attaches
// the verified identity to the request context.
func requireAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(bearerToken(r))
			if err != nil {
				writeDomainError(w, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ToContext(r.Context(), identity)))
		})
	}
}

// optionalAuth verifies a credential when one is present but lets anonymous
// requests through untouched. Used only by trigger recording, where an
// absent credential marks a sensor-originated call.
func optionalAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)

				return
			}

			// A present but invalid credential is still rejected.
			identity, err := verifier.Verify(raw)
			if err != nil {
				writeDomainError(w, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ToContext(r.Context(), identity)))
		})
	}
}
