package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/metrics"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/roster/store"
	"github.com/warp/crew-scheduler/roster/storetest"
)

func TestInstrumentedGateway_PassesContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) roster.Gateway {
		return metrics.New().Instrument(store.NewMemory())
	})
}

func TestInstrumentedGateway_CountsByResult(t *testing.T) {
	m := metrics.New()
	gw := m.Instrument(store.NewMemory())
	ctx := context.Background()

	_, err := gw.GetWorker(ctx, "missing")
	require.Error(t, err)
	_, err = gw.ListWorkers(ctx)
	require.NoError(t, err)

	expected := `
# HELP crew_store_operations_total Total number of record store operations.
# TYPE crew_store_operations_total counter
crew_store_operations_total{collection="workers",op="get",result="not_found"} 1
crew_store_operations_total{collection="workers",op="list",result="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "crew_store_operations_total"))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/workers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workers/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crew_http_requests_total{method="GET",route="/api/workers/{id}",status="404"} 2`)
}

func TestObserveBatch_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() { m.ObserveBatch("schedule", 1, 0) })

	m = metrics.New()
	m.ObserveBatch("reassign", 3, 1)

	expected := `
# HELP crew_batch_writes_total Writes issued by multi-record operations, by outcome.
# TYPE crew_batch_writes_total counter
crew_batch_writes_total{operation="reassign",result="error"} 1
crew_batch_writes_total{operation="reassign",result="ok"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "crew_batch_writes_total"))
}
