package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_SchedulePass(t *testing.T) {
	m := New(DefaultConfig("production-scheduler"))

	m.RecordSchedulePass(4, 0, 2*time.Millisecond)
	m.RecordSchedulePass(5, 2, 3*time.Millisecond)
	m.RecordCapacityShortfall("Assembly", "no_qualified_resource")
	m.RecordStageAssignment("CNC Cutting")
	m.RecordStageAssignment("CNC Cutting")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchedulePasses.WithLabelValues("production-scheduler", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchedulePasses.WithLabelValues("production-scheduler", "shortfall")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ScheduledBacklog))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageAssignments.WithLabelValues("production-scheduler", "CNC Cutting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CapacityShortfalls.WithLabelValues("production-scheduler", "Assembly", "no_qualified_resource")))
}

func TestMetrics_StageCompleted(t *testing.T) {
	m := New(DefaultConfig("production-scheduler"))

	m.RecordStageCompleted("Quality Assurance", false)
	m.RecordStageCompleted("Packing", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagesCompleted.WithLabelValues("production-scheduler", "Packing")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(DefaultConfig("production-scheduler"))
	m.RecordHTTPRequest("GET", "/api/v1/orders", 200, time.Millisecond)
	m.SetOutboxPending(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "production_http_requests_total")
	assert.Contains(t, rec.Body.String(), "production_outbox_events_pending")
}
