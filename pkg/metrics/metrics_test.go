package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRender(t *testing.T) {
	m := NewManager()

	m.ObserveRender("<svg></svg>", 2*time.Millisecond)
	m.ObserveRender("<svg></svg>", time.Millisecond)
	m.ObserveRender("", time.Microsecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.chartsRendered.WithLabelValues(ResultSVG)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chartsRendered.WithLabelValues(ResultEmpty)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderSeconds))
}

func TestRecordHTTPRequestAndCache(t *testing.T) {
	m := NewManager()
	m.RecordHTTPRequest("/api/v1/charts/progress", "200")
	m.RecordHTTPRequest("/api/v1/charts/progress", "200")
	m.RecordHTTPRequest("/health", "200")
	m.RecordCacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/charts/progress", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.ObserveRender("", 0)
		m.RecordHTTPRequest("/", "200")
		m.RecordCacheHit()
	})
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewManager(WithNamespace("test"))
	m.ObserveRender("<svg/>", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `test_charts_rendered_total{result="svg"} 1`)
	assert.NotContains(t, string(body), "go_goroutines")
}

func TestManagersAreIndependent(t *testing.T) {
	a, b := NewManager(), NewManager()
	a.RecordCacheHit()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cacheHits))
}
