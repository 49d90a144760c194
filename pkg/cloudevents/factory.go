package cloudevents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Rakishiii/production-scheduler/pkg/logging"
)

// EventFactory creates CloudEvents for production domain events
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent wraps data in an envelope. The correlation id and W3C trace parent are
// taken from ctx when present; subjects of the form "order/<id>" also set the order extension.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *ProductionCloudEvent {
	event := &ProductionCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if id, ok := strings.CutPrefix(subject, "order/"); ok {
		event.OrderID = id
	}
	if correlationID, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = correlationID
	}

	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	event.TraceParent = carrier.Get("traceparent")

	return event
}
