package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/katalvlaran/disco/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	c.ModelBuilt()
	c.ModelBuilt()
	c.ObservePartition(100, 20*time.Millisecond)
	c.ConvergenceWarning()
	c.SweepJob(metrics.StatusOK)
	c.SweepJob(metrics.StatusOK)
	c.SweepJob(metrics.StatusFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ModelsBuilt))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Partitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ConvergenceWarnings))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.SweepJobs.WithLabelValues(metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SweepJobs.WithLabelValues(metrics.StatusFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.PartitionDuration))
}

// TestCollector_ReRegister reuses collectors already in the registry.
func TestCollector_ReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	b, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	a.ModelBuilt()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ModelsBuilt))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *metrics.Collector
	assert.NotPanics(t, func() {
		c.ModelBuilt()
		c.ObservePartition(1, time.Second)
		c.ConvergenceWarning()
		c.SweepJob(metrics.StatusOK)
	})
}

func TestCollector_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	c.ModelBuilt()
	c.SweepJob(metrics.StatusWarning)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "disco_models_built_total 1"))
	assert.True(t, strings.Contains(body, `disco_sweep_jobs_total{status="not_converged"} 1`))
}
