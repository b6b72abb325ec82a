package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordAndExpose(t *testing.T) {
	m := New("test")

	m.ObserveRequest("GET", "/api/properties", "200", 10*time.Millisecond)
	m.RecordSyncRun("applied", 3)
	m.RecordSyncRun("failed", 0)
	m.RecordBookingLookupFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/properties", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SyncStagedUpdates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingLookupFailures))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_guest_sync_runs_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", "200", time.Second)
		m.RecordSyncRun("dry_run", 1)
		m.RecordBookingLookupFailure()
		m.RecordNotification("sent")
		m.TrackStoreOperation("list")(time.Now())
	})
}
