package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	baseItem := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/v1/items/{id}", "200"))
	baseEmpty := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204"))
	baseMissing := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, path := range []string{"/v1/items/1", "/v1/items/2", "/empty", "/does-not-exist"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, baseItem+2, testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/v1/items/{id}", "200")))
	assert.Equal(t, baseEmpty+1, testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204")))
	assert.Equal(t, baseMissing+1, testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInflight))
}

func TestMetrics_ObservesLatencyAndSize(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/sized", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 300))
	})

	before := testutil.CollectAndCount(httpRespSize)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sized", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(httpRespSize), before)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(httpLat, "http_request_duration_seconds"), 1)
}
