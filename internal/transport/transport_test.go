package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadpool/internal/metrics"
	"threadpool/internal/ratelimit"
	"threadpool/pkg/logger"
)

type fakePool struct{}

func (fakePool) Name() string { return "fake" }
func (fakePool) Size() int    { return 4 }
func (fakePool) Pending() int { return 2 }

func newTestServer(t *testing.T) (*Server, *ratelimit.TokenBucket, *metrics.PoolMetrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewPoolMetrics(reg)
	tb := ratelimit.NewTokenBucket(3, 1)
	return NewServer(fakePool{}, tb, reg, logger.NewNop()), tb, m
}

func TestServer_Health(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, HealthResponse{Status: "ok", Pool: "fake", Workers: 4, Pending: 2}, resp)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s, _, m := newTestServer(t)
	m.TaskSubmitted("fake")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `threadpool_tasks_submitted_total{pool_name="fake"} 1`)
}

func TestServer_RateLimitCRUD(t *testing.T) {
	s, tb, _ := newTestServer(t)
	h := s.Handler()

	// по умолчанию
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ratelimit/producer-0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RateLimitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ratelimit.Limits{Rate: 3, Burst: 1}, resp.Limits)
	assert.False(t, resp.Explicit)
	assert.InDelta(t, 1.0, resp.Tokens, 0.001, "полная корзина")

	// продюсер отправил задачу, токен израсходован
	require.NoError(t, tb.Wait(context.Background(), "producer-0"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ratelimit/producer-0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Less(t, resp.Tokens, 1.0)

	// удалять нечего
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ratelimit/producer-0", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// обновляем
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/ratelimit/producer-0",
		strings.NewReader(`{"rate": 7.5, "burst": 2}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	got, explicit := tb.GetLimits("producer-0")
	assert.True(t, explicit)
	assert.Equal(t, ratelimit.Limits{Rate: 7.5, Burst: 2}, *got)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ratelimit/producer-0", nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Explicit)
	assert.Equal(t, ratelimit.Limits{Rate: 7.5, Burst: 2}, resp.Limits)

	// удаляем
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ratelimit/producer-0", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, explicit = tb.GetLimits("producer-0")
	assert.False(t, explicit)
}

func TestServer_RateLimitBadRequests(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		method string
		path   string
		body   string
		code   int
	}{
		{http.MethodGet, "/ratelimit/", "", http.StatusBadRequest},
		{http.MethodGet, "/ratelimit/a/b", "", http.StatusBadRequest},
		{http.MethodPut, "/ratelimit/p", "not json", http.StatusBadRequest},
		{http.MethodPut, "/ratelimit/p", `{"rate": 0, "burst": 1}`, http.StatusBadRequest},
		{http.MethodPost, "/ratelimit/p", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
		assert.Equal(t, tt.code, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestServer_StartStop(t *testing.T) {
	s, _, _ := newTestServer(t)
	require.NoError(t, s.Start("127.0.0.1:0"))

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}
