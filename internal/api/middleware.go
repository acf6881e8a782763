package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"teamvault/internal/domain"
	"teamvault/internal/platform/crypto"

	"go.uber.org/zap"
)

// CtxKey is a custom type for context keys to avoid collisions.
type CtxKey string

// PrincipalKey is the key for storing the authenticated principal in the
// request context.
const PrincipalKey CtxKey = "principal"

// AuthMiddleware verifies the bearer token issued by the external identity
// service. The PIN gate never substitutes for this check: every vault request
// carries a token and is authorized server-side regardless of client PIN state.
type AuthMiddleware struct {
	tokens crypto.TokenVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(tokens crypto.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth checks the Authorization header for a valid bearer token. On
// success it places the caller's Principal in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, NewUnauthorizedError("Missing authentication token"))
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			writeError(w, NewUnauthorizedError("Invalid authentication token"))
			return
		}

		p := domain.Principal{
			UserID:         claims.UserID,
			OrganizationID: claims.OrganizationID,
			Email:          claims.Email,
		}
		ctx := context.WithValue(r.Context(), PrincipalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalFromContext is a helper function to safely retrieve the
// authenticated principal from the context.
func GetPrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.String("ip", clientIP(r)),
				zap.Duration("latency", time.Since(start)))
		})
	}
}

// statusWriter captures the status code written by downstream handlers.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// clientIP resolves the caller's address, preferring the first entry of
// X-Forwarded-For when a proxy sits in front of the service.
func clientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
