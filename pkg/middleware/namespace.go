// Package middleware provides net/http middleware that runs each request
// inside its own context namespace frame, so wrapped objects used while
// serving the request see request-scoped values.
package middleware

import (
	"context"
	"net/http"

	"github.com/conduit-lang/clsproxy/internal/logging"
	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// ContextKey is a custom type for frame keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the frame key for request IDs
	RequestIDKey ContextKey = "request_id"
)

// Config holds configuration for the namespace middleware
type Config struct {
	// HeaderName is the name of the header to read/write the request ID
	HeaderName string
	// Generator is a custom function to generate request IDs
	Generator func() string
	// Logger receives one debug entry per request. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default middleware configuration
func DefaultConfig() Config {
	return Config{
		HeaderName: "X-Request-ID",
		Generator:  defaultRequestIDGenerator,
	}
}

// Namespace creates a middleware that enters a fresh ns frame per request
func Namespace(ns *cls.Namespace) Middleware {
	return NamespaceWithConfig(ns, DefaultConfig())
}

// NamespaceWithConfig creates a namespace middleware with custom configuration
func NamespaceWithConfig(ns *cls.Namespace, config Config) Middleware {
	if config.HeaderName == "" {
		config.HeaderName = "X-Request-ID"
	}
	if config.Generator == nil {
		config.Generator = defaultRequestIDGenerator
	}
	logger := logging.OrNop(config.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(config.HeaderName)
			if requestID == "" {
				requestID = config.Generator()
			}

			ctx, frame := ns.Enter(r.Context())
			frame.Set(RequestIDKey, requestID)
			w.Header().Set(config.HeaderName, requestID)

			logger.Debug("request frame entered",
				zap.String("request_id", requestID),
				zap.String("frame", frame.ID()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the request ID stored in the active ns frame
func RequestID(ctx context.Context, ns *cls.Namespace) string {
	if v, ok := ns.Get(ctx, RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// defaultRequestIDGenerator generates a UUID v4 request ID
func defaultRequestIDGenerator() string {
	return uuid.New().String()
}
