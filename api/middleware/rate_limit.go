package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bazarika/bazarika-backend/api/responses"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

// RateLimitStore counts requests inside a fixed window. Implemented by
// pkg/redis.Client.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy names a throttle and its fixed-window budget. A zero
// window or limit disables the policy.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limit  int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && p.Limit > 0
}

// RateLimit enforces a fixed-window limit per caller. Authenticated requests
// are scoped to the user, anonymous ones to the client IP. Store failures
// fail closed: a broken counter must not turn the throttle off.
func RateLimit(store RateLimitStore, policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !policy.enabled() {
				next.ServeHTTP(w, r)
				return
			}

			scope := rateLimitScope(r, policy.Name)
			allowed, count, err := store.FixedWindowAllow(r.Context(), scope, int64(policy.Limit), policy.Window)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{
						"policy": policy.Name,
						"scope":  scope,
						"count":  count,
					}), "rate limit exceeded")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitScope(r *http.Request, policy string) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return fmt.Sprintf("%s:user:%s", policy, userID)
	}
	return fmt.Sprintf("%s:ip:%s", policy, clientIP(r))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
