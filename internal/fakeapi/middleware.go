package fakeapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"

	// APIKeyHeader carries the caller's API key.
	APIKeyHeader = "x-aurorax-api-key"
)

// RequestIDResponse adds the X-Request-ID header to the response. Place it
// after chi's middleware.RequestID, which honors an incoming X-Request-ID.
func RequestIDResponse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set(RequestIDHeader, reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs every request at debug level with the chi route
// pattern it matched, so polls of different searches group together.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			logger.DebugContext(r.Context(), "fake api request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", ww.Status()),
				slog.Bool("api_key", r.Header.Get(APIKeyHeader) != ""),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recovery turns a handler panic into an AuroraX SERVER_ERROR body.
func Recovery(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.ErrorContext(r.Context(), "fake api handler panicked",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("path", r.URL.Path),
				)
				WriteInternalError(w, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIKey rejects requests whose API key header differs from key.
// An empty key disables the check.
func RequireAPIKey(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get(APIKeyHeader) != key {
				WriteUnauthorized(w, "API key missing or invalid")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Maintenance answers every request with 503 while enabled returns true.
func Maintenance(enabled func() bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled() && !strings.HasSuffix(r.URL.Path, "/health") {
				WriteError(w, http.StatusServiceUnavailable, ErrCodeMaintenance, "AuroraX API is in maintenance mode")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
