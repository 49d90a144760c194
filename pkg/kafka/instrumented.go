package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Rakishiii/production-scheduler/pkg/cloudevents"
	"github.com/Rakishiii/production-scheduler/pkg/logging"
	"github.com/Rakishiii/production-scheduler/pkg/metrics"
	"github.com/Rakishiii/production-scheduler/pkg/tracing"
)

// EventPublisher is implemented by Producer and InstrumentedProducer
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent) error
}

// InstrumentedProducer wraps a publisher with metrics, tracing and publish logs
type InstrumentedProducer struct {
	producer EventPublisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer. m and logger may be nil.
func NewInstrumentedProducer(producer EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes inside a producer span. An event without a trace parent picks up
// the span's context so consumers can continue the trace.
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message_id", event.ID),
			attribute.String("cloudevents.event_type", event.Type),
		),
	)
	defer span.End()

	if event.OrderID != "" {
		span.SetAttributes(attribute.String("production.order_id", event.OrderID))
	}
	if event.TraceParent == "" {
		carrier := tracing.MapCarrier{}
		tracing.InjectTraceContext(ctx, carrier)
		event.TraceParent = carrier.Get("traceparent")
	}

	err := p.producer.PublishEvent(ctx, topic, event)
	duration := time.Since(start)
	success := err == nil

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}
