package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tair/stockroom/internal/access/cache"
	"github.com/tair/stockroom/internal/httpapi"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/logger"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token was revoked at logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Limiter decides whether a caller may make another request
type Limiter interface {
	Allow(ctx context.Context, identifier string) (cache.RateLimitResult, error)
}

// AuthMiddleware validates the bearer token and stores its claims in the
// request context. revocations may be nil when Redis is disabled.
func AuthMiddleware(tokens TokenValidator, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpapi.RespondMessage(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				httpapi.RespondMessage(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				httpapi.RespondMessage(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.TokenID())
				if err != nil {
					logger.Error(r.Context()).Err(err).Msg("Failed to check token revocation")
					httpapi.RespondMessage(w, http.StatusServiceUnavailable, "Token revocation check unavailable")
					return
				}
				if revoked {
					httpapi.RespondMessage(w, http.StatusUnauthorized, "Token has been revoked")
					return
				}
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = logger.ContextWithActor(ctx, claims.ActorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits requests per client IP. A nil limiter disables
// limiting; limiter errors let the request through.
func RateLimitMiddleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := "ip:" + clientIP(r)

			result, err := limiter.Allow(r.Context(), identifier)
			if err != nil {
				logger.Error(r.Context()).
					Err(err).
					Str("identifier", identifier).
					Msg("Rate limiter error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.Reset.Unix()))

			if !result.Allowed {
				logger.Warn(r.Context()).Str("identifier", identifier).Msg("Rate limit exceeded")
				httpapi.RespondMessage(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
