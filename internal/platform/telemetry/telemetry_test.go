package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBatchAndRun(t *testing.T) {
	m := NewMetrics()
	m.RecordBatch("clinical", 100, 10*time.Millisecond)
	m.RecordBatch("clinical", 50, 5*time.Millisecond)
	m.RecordRun("clinical", nil)
	m.RecordRun("supply", errors.New("disk full"))

	if got := testutil.ToFloat64(m.rowsGenerated.WithLabelValues("clinical")); got != 150 {
		t.Errorf("expected 150 rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.generationRuns.WithLabelValues("supply", StatusFailure)); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
	if got := testutil.CollectAndCount(m.batchDuration); got != 1 {
		t.Errorf("expected 1 batch histogram series, got %d", got)
	}
}

func TestRecordLoad_SkipsZeroSkipped(t *testing.T) {
	m := NewMetrics()
	m.RecordLoad("hr", 0, time.Millisecond)
	if got := testutil.CollectAndCount(m.skippedRows); got != 0 {
		t.Errorf("expected no skipped series, got %d", got)
	}
	m.RecordLoad("hr", 3, time.Millisecond)
	if got := testutil.ToFloat64(m.skippedRows.WithLabelValues("hr")); got != 3 {
		t.Errorf("expected 3 skipped, got %v", got)
	}
}

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", m.PrometheusHandler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `http_server_request_duration_seconds_count{method="GET",route="/ping",status="200"} 1`) {
		t.Errorf("missing request series in:\n%s", body)
	}
	if got := testutil.ToFloat64(m.activeRequests); got != 0 {
		t.Errorf("expected 0 active requests, got %v", got)
	}
}
