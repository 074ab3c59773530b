package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/seaice-etl/internal/adapter/http"
	"github.com/couchcryptid/seaice-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStatus struct {
	err      error
	progress pipeline.Progress
}

func (m *mockStatus) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockStatus) Progress() pipeline.Progress { return m.progress }

func newTestServer(status *mockStatus) *httpadapter.Server {
	return httpadapter.NewServer(":0", status, nil, slog.Default())
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{err: fmt.Errorf("no granules yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no granules yet", body["error"])
}

func TestStatusReportsProgress(t *testing.T) {
	status := &mockStatus{progress: pipeline.Progress{Total: 4, Attempted: 3, Succeeded: 2, Failed: 1}}
	rec := get(t, newTestServer(status), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":4,"attempted":3,"succeeded":2,"failed":1}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsEndpoint_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "granules_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httpadapter.NewServer(":0", &mockStatus{}, reg, slog.Default())
	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "granules_test_total 1")
	assert.NotContains(t, rec.Body.String(), "go_goroutines")
}
