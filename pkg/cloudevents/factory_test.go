package cloudevents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rakishiii/production-scheduler/pkg/logging"
)

func TestEventFactory_CreateEvent(t *testing.T) {
	factory := NewEventFactory(SourceScheduler)
	factory.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-7")
	event := factory.CreateEvent(ctx, OrderStageCompleted, "order/ORD-1", map[string]string{"stage": "Assembly"})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, OrderStageCompleted, event.Type)
	assert.Equal(t, SourceScheduler, event.Source)
	assert.Equal(t, "ORD-1", event.OrderID)
	assert.Equal(t, "corr-7", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
	assert.Empty(t, event.TraceParent, "no span in context")

	headers := event.Headers()
	assert.Equal(t, OrderStageCompleted, headers["ce-type"])
	assert.Equal(t, "corr-7", headers["ce-prodcorrelationid"])
	assert.Equal(t, "2025-03-03T09:00:00Z", headers["ce-time"])
	assert.NotContains(t, headers, "ce-traceparent")
}

func TestEventFactory_NonOrderSubject(t *testing.T) {
	event := NewEventFactory(SourceScheduler).CreateEvent(context.Background(), OrderDeleted, "absence/A1", nil)
	assert.Empty(t, event.OrderID)
	assert.Empty(t, event.CorrelationID)
}
