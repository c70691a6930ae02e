package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric collects c and returns the sample whose labels include all of
// labels, or nil.
func findMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		require.NoError(t, m.Write(d))
		got := make(map[string]string, len(d.GetLabel()))
		for _, lp := range d.GetLabel() {
			got[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range labels {
			if got[k] != v {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

func productRouter(service string, status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/products/{idOrSlug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := productRouter("metrics-route", http.StatusOK)
	for _, slug := range []string{"iphone-15", "airpods-pro", "ipad-air"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/"+slug, nil))
	}

	m := findMetric(t, httpRequestsTotal, map[string]string{
		"service": "metrics-route",
		"route":   "/api/v1/products/{idOrSlug}",
		"status":  "200",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_RecordsDuration(t *testing.T) {
	r := productRouter("metrics-hist", http.StatusNotFound)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil))

	m := findMetric(t, httpRequestDuration, map[string]string{"service": "metrics-hist", "method": "GET"})
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())

	c := findMetric(t, httpRequestsTotal, map[string]string{"service": "metrics-hist", "status": "404"})
	require.NotNil(t, c)
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	r := productRouter("metrics-unmatched", http.StatusOK)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	m := findMetric(t, httpRequestsTotal, map[string]string{"service": "metrics-unmatched", "route": "unmatched"})
	require.NotNil(t, m)
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-inflight"))
	r.Get("/api/v1/basket", func(w http.ResponseWriter, r *http.Request) {
		during = findMetric(t, httpRequestsInFlight, map[string]string{"service": "metrics-inflight"}).GetGauge().GetValue()
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil))

	assert.Equal(t, float64(1), during)
	after := findMetric(t, httpRequestsInFlight, map[string]string{"service": "metrics-inflight"})
	assert.Equal(t, float64(0), after.GetGauge().GetValue())
}
