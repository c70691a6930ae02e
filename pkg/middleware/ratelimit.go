package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/SashaVektor/apple-store-clone/pkg/httputil"
)

// RateLimitConfig sizes the token buckets kept per basket and per remote IP.
type RateLimitConfig struct {
	// PerMinute is the sustained number of requests one basket may make.
	PerMinute int
	Burst     int
	// IPPerMinute and IPBurst bound a single remote address across all the
	// baskets it presents. Zero means three times the basket values.
	IPPerMinute int
	IPBurst     int
	// IdleTTL evicts buckets for clients not seen for this long.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketStore keeps one limiter per key. Idle keys are evicted by
// cleanupLoop, never on the request path.
type bucketStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	nowFunc func() time.Time
}

func newBucketStore(perMinute, burst int, ttl time.Duration) *bucketStore {
	return &bucketStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (s *bucketStore) now() time.Time {
	return s.nowFunc()
}

// get returns (or creates) the limiter for key and marks it as seen.
func (s *bucketStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = s.now()
	return b.limiter
}

// cleanupLoop runs a ticker that evicts buckets not seen within the TTL.
func (s *bucketStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for range ticker.C {
		s.cleanup()
	}
}

func (s *bucketStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, b := range s.buckets {
		if now.Sub(b.lastSeen) > s.ttl {
			delete(s.buckets, k)
		}
	}
}

// len returns the number of tracked keys (used in tests).
func (s *bucketStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit throttles checkout traffic with two token buckets: one per
// remote IP, always applied, and one per X-Basket-ID when the header is
// present. A request must fit in both. Rejected requests get 429 with a
// Retry-After hint.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IPPerMinute <= 0 {
		cfg.IPPerMinute = cfg.PerMinute * 3
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = cfg.Burst * 3
	}

	ips := newBucketStore(cfg.IPPerMinute, cfg.IPBurst, cfg.IdleTTL)
	baskets := newBucketStore(cfg.PerMinute, cfg.Burst, cfg.IdleTTL)
	go ips.cleanupLoop()
	go baskets.cleanupLoop()

	return rateLimit(ips, baskets, logger)
}

func rateLimit(ips, baskets *bucketStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := ips.now()
			ip := remoteIP(r)

			reservations := []*rate.Reservation{ips.get(ip).ReserveN(now, 1)}
			basketID := r.Header.Get(BasketIDHeader)
			if basketID != "" {
				reservations = append(reservations, baskets.get(basketID).ReserveN(now, 1))
			}

			var delay time.Duration
			for _, res := range reservations {
				delay = max(delay, res.DelayFrom(now))
			}

			if delay > 0 {
				for _, res := range reservations {
					res.CancelAt(now)
				}
				logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("basket_id", basketID),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests, try again shortly"},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// remoteIP is the peer address without its port. Forwarding headers are
// ignored since any client can set them.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
