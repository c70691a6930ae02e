package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func checkoutRequest(basketID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", nil)
	if basketID != "" {
		req.Header.Set(BasketIDHeader, basketID)
	}
	return req
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerMinute: 1, Burst: 2}, discardLogger())(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, checkoutRequest("basket-1"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimit_BasketsAreIndependent(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerMinute: 1, Burst: 1}, discardLogger())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-b"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit_RotatingBasketIDsShareIPBucket(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerMinute: 10, Burst: 3}, discardLogger())(okHandler())

	created := 0
	for i := 0; i < 20; i++ {
		req := checkoutRequest(fmt.Sprintf("basket-%d", i))
		req.RemoteAddr = "198.51.100.4:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
	assert.Equal(t, 9, created, "one address gets three baskets' worth of burst")

	other := checkoutRequest("basket-fresh")
	other.RemoteAddr = "198.51.100.5:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit_ExplicitIPLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerMinute: 10, Burst: 5, IPPerMinute: 1, IPBurst: 1}, discardLogger())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-a"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_RejectionDoesNotSpendBasketToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ips := newBucketStore(60, 1, time.Hour)
	baskets := newBucketStore(60, 1, time.Hour)
	ips.nowFunc, baskets.nowFunc = clock, clock
	h := rateLimit(ips, baskets, discardLogger())(okHandler())

	first := checkoutRequest("basket-a")
	first.RemoteAddr = "203.0.113.9:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same address, new basket: the IP bucket is empty, so basket-b is
	// rejected and must keep its token.
	second := checkoutRequest("basket-b")
	second.RemoteAddr = "203.0.113.9:1001"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	third := checkoutRequest("basket-b")
	third.RemoteAddr = "203.0.113.10:1000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, third)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit_NoBasketUsesIPOnly(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerMinute: 1, Burst: 1, IPPerMinute: 1, IPBurst: 1}, discardLogger())(okHandler())

	first := checkoutRequest("")
	first.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := checkoutRequest("")
	second.RemoteAddr = "203.0.113.7:6000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBucketStore_CleanupEvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newBucketStore(60, 1, time.Minute)
	store.nowFunc = func() time.Time { return now }

	store.get("a")
	now = now.Add(30 * time.Second)
	store.get("b")
	require.Equal(t, 2, store.len())

	store.cleanup()
	require.Equal(t, 2, store.len())

	now = now.Add(45 * time.Second)
	store.get("c")
	assert.Equal(t, 3, store.len(), "get never evicts")

	store.cleanup()
	assert.Equal(t, 2, store.len())
}

func TestBucketStore_RefillsOverTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ips := newBucketStore(600, 10, time.Hour)
	baskets := newBucketStore(6, 1, time.Hour)
	ips.nowFunc, baskets.nowFunc = clock, clock
	h := rateLimit(ips, baskets, discardLogger())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-1"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	now = now.Add(11 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("basket-1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
