package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveOperation("default", "alias", true, 200*time.Millisecond)
	m.ObserveOperation("default", "alias", false, time.Second)
	m.ObserveOperation("default", "alias", true, 300*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("default", "alias", metrics.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("default", "alias", metrics.OutcomeFailure)), 0)
	assert.Positive(t, testutil.ToFloat64(m.LastSuccess.WithLabelValues("default")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestObserveOperation_FailureLeavesLastSuccessUnset(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveOperation("products", "create", false, time.Millisecond)

	assert.Equal(t, 0, testutil.CollectAndCount(m.LastSuccess))
}

func TestMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveOperation("default", "time", true, time.Millisecond)

	expected := `
# HELP index_rotator_operations_total Total number of create, rotate and dump operations
# TYPE index_rotator_operations_total counter
index_rotator_operations_total{manager="default",mode="time",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "index_rotator_operations_total"))
}

func TestPush_NoGateway(t *testing.T) {
	m := metrics.New(nil)
	require.NoError(t, m.Push(context.Background()))
}

func TestPush(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := metrics.New(prometheus.NewRegistry(), metrics.WithPushgateway(server.URL, "nightly-rotation"))
	m.ObserveOperation("default", "alias", true, time.Millisecond)

	require.NoError(t, m.Push(context.Background()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/nightly-rotation", path)
}

func TestPush_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := metrics.New(prometheus.NewRegistry(), metrics.WithPushgateway(server.URL, ""))
	m.ObserveOperation("default", "alias", true, time.Millisecond)

	err := m.Push(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push metrics")
}
