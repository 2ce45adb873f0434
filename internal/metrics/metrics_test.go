package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("404 count = %v, want 1", got)
	}
}

func TestCollector_AuthCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthSuccess("password")
	c.RecordAuthFailure("password")
	c.RecordAuthFailure("google")

	if got := testutil.ToFloat64(c.authSuccess.WithLabelValues("password")); got != 1 {
		t.Errorf("password success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.authFailure.WithLabelValues("google")); got != 1 {
		t.Errorf("google failure = %v, want 1", got)
	}
}

func TestCollector_RealtimeClientsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ClientConnected()
	c.ClientConnected()
	c.ClientDisconnected()

	if got := testutil.ToFloat64(c.realtimeClients); got != 1 {
		t.Errorf("realtime clients = %v, want 1", got)
	}
}

func TestCollector_CounterIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCounterIncrement("user")
	c.RecordCounterIncrement("global")
	c.RecordCounterIncrement("global")

	if got := testutil.ToFloat64(c.counterIncrements.WithLabelValues("global")); got != 2 {
		t.Errorf("global increments = %v, want 2", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "countboard_http_status_total") {
		t.Error("metrics output should contain countboard_http_status_total")
	}
}
