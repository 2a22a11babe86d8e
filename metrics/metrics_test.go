package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusFactory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		enabled = false
		_, ok := PrometheusFactory(PrometheusRegistry()).(*noopFactory)
		assert.True(t, ok)
	})

	t.Run("enabled", func(t *testing.T) {
		Enable()
		t.Cleanup(func() { enabled = false })
		require.True(t, Enabled())

		registry := PrometheusRegistry()
		factory := PrometheusFactory(registry)
		factory.NewCounterVec(CounterOpts{Namespace: "test", Name: "calls"}, []string{"kind"}).
			WithLabelValues("a").Add(2)
		factory.NewHistogram(HistogramOpts{Namespace: "test", Name: "latency", Buckets: []float64{1}}).Observe(0.5)

		srv := httptest.NewServer(PrometheusHandler(registry))
		t.Cleanup(srv.Close)

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, resp.Body.Close())
		require.NoError(t, err)

		assert.Contains(t, string(body), `test_calls{kind="a"} 2`)
		assert.Contains(t, string(body), `test_latency_bucket{le="1"} 1`)
		assert.Contains(t, string(body), "go_goroutines")
	})
}

func TestVoidFactory(t *testing.T) {
	factory := VoidFactory()
	factory.NewCounter(CounterOpts{}).Inc()
	factory.NewGauge(GaugeOpts{}).Set(1)
	factory.NewHistogramVec(HistogramOpts{}, nil).WithLabelValues("x").Observe(1)
}
