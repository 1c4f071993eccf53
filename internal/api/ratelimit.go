package api

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/shutterboxapp/shutterbox/internal/http/response"
	"github.com/shutterboxapp/shutterbox/internal/ratelimit"
)

// RateLimitMiddleware limits requests per client address. Rejected
// requests get 429 with a Retry-After hint.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(limiter.Interval().Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := getClientIP(r)
			if limiter.Allow(client) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("rate limit exceeded", "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfter)
			response.TooManyRequests(w, "Too many imports. Please try again later.", logger)
		})
	}
}

// getClientIP returns the address the request came from. A proxy's
// X-Forwarded-For (first hop) or X-Real-IP wins over the peer address
// when it parses as an IP.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
