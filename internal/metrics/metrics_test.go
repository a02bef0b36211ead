package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Healthz(t *testing.T) {
	srv := NewServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := NewServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_RejectsPost(t *testing.T) {
	srv := NewServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewPoolCollector_Describe(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	collectors := NewPoolCollector(nil)
	require.Len(t, collectors, 5)

	// Registration only describes the gauges; the pool is read on scrape.
	for _, c := range collectors {
		require.NoError(t, reg.Register(c))
	}

	descs := make(chan *prometheus.Desc, 1)
	collectors[0].Describe(descs)
	assert.Contains(t, (<-descs).String(), "saaslens_db_pool_acquired_conns")
}
