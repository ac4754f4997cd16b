package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var submissionsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "submissions_throttled_total",
	Help: "Total batch submissions rejected by the per-client throttle",
})

// KeyFunc derives the throttle key of a request.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by remote host. Run it behind a real-IP middleware
// when the service sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Middleware rejects requests over the limit with 429, a Retry-After header
// and a JSON error body.
func Middleware(l *Limiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			ok, wait := l.Allow(key)
			if !ok {
				submissionsThrottledTotal.Inc()
				seconds := max(1, int(math.Ceil(wait.Seconds())))
				log.Warn().Str("client", key).Int("retry_after", seconds).Msg("Submission throttled")

				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many submissions, retry later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
