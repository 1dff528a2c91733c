package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/logging"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/token"
)

// AccessTokenVerifier checks an access token signature and returns its claims.
// Verification is purely cryptographic, no storage lookup happens per request.
type AccessTokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// RequireAccessToken rejects requests without a valid bearer token and stores
// the resolved principal in the request context.
func RequireAccessToken(verifier AccessTokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractTokenFromRequest(r)
			if raw == "" {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_TOKEN_MISSING",
					Message:   errMissingToken.Error(),
				})
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_TOKEN_INVALID",
					Message:   "the access token is invalid or has expired",
				})
				return
			}

			principal := application.Principal{UserID: claims.Subject, Role: claims.Role}
			ctx := ContextWithPrincipal(r.Context(), principal)
			ctx = logging.With(ctx, "user_id", principal.UserID, "role", principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request-scoped logger to the context and emits
// start/completion log lines.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.NewContext(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	// WebSocket clients cannot set headers from browsers, allow a query token.
	if q := strings.TrimSpace(r.URL.Query().Get("access_token")); q != "" {
		return q
	}
	return ""
}
