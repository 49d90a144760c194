package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all production scheduler metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
	OutboxRetries   *prometheus.CounterVec
	OutboxPending   prometheus.Gauge

	// Scheduling metrics
	SchedulePasses      *prometheus.CounterVec
	ScheduleDuration    prometheus.Histogram
	StageAssignments    *prometheus.CounterVec
	CapacityShortfalls  *prometheus.CounterVec
	ScheduledBacklog    prometheus.Gauge

	// Business metrics
	OrdersCreated    *prometheus.CounterVec
	OrdersCompleted  prometheus.Counter
	StagesCompleted  *prometheus.CounterVec
	AbsencesRecorded *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "production",
	}
}

// New creates a new Metrics instance on its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	ns := config.Namespace
	serviceLabel := prometheus.Labels{"service": config.ServiceName}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests",
	}, []string{"service", "method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"service", "method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "http_requests_in_flight", Help: "Number of HTTP requests currently being processed",
		ConstLabels: serviceLabel,
	})

	m.KafkaEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published",
	}, []string{"service", "topic", "event_type", "status"})

	m.KafkaPublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "kafka_publish_duration_seconds", Help: "Kafka publish duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"service", "topic"})

	m.MongoDBOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations",
	}, []string{"service", "collection", "operation", "status"})

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "mongodb_operation_duration_seconds", Help: "MongoDB operation duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"service", "collection", "operation"})

	m.OutboxPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "outbox_events_published_total", Help: "Outbox events relayed to Kafka",
	}, []string{"service", "event_type", "status"})

	m.OutboxRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "outbox_event_retries_total", Help: "Outbox publish retries",
	}, []string{"service", "event_type"})

	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "outbox_events_pending", Help: "Outbox events waiting to be published",
		ConstLabels: serviceLabel,
	})

	m.SchedulePasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "schedule_passes_total", Help: "Scheduling passes run",
	}, []string{"service", "outcome"})

	m.ScheduleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "schedule_pass_duration_seconds", Help: "Duration of one scheduling pass",
		Buckets:     []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
		ConstLabels: serviceLabel,
	})

	m.StageAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "stage_assignments_total", Help: "Stage assignments emitted by scheduling passes",
	}, []string{"service", "stage"})

	m.CapacityShortfalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "capacity_shortfalls_total", Help: "Stages left unscheduled for lack of resources",
	}, []string{"service", "stage", "reason"})

	m.ScheduledBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "scheduled_backlog_orders", Help: "Orders considered by the latest scheduling pass",
		ConstLabels: serviceLabel,
	})

	m.OrdersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "orders_created_total", Help: "Total number of orders created",
	}, []string{"service", "priority", "cabinet_type"})

	m.OrdersCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "orders_completed_total", Help: "Orders that finished every stage",
		ConstLabels: serviceLabel,
	})

	m.StagesCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "stages_completed_total", Help: "Routing stages marked complete",
	}, []string{"service", "stage"})

	m.AbsencesRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "absences_recorded_total", Help: "Absence records created",
	}, []string{"service", "role"})

	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"service", "name"})

	m.CircuitBreakerTrips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips",
	}, []string{"service", "name"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OutboxPublished,
		m.OutboxRetries,
		m.OutboxPending,
		m.SchedulePasses,
		m.ScheduleDuration,
		m.StageAssignments,
		m.CapacityShortfalls,
		m.ScheduledBacklog,
		m.OrdersCreated,
		m.OrdersCompleted,
		m.StagesCompleted,
		m.AbsencesRecorded,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, outcome(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, outcome(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordOutboxPublish records the relay of one outbox event
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, outcome(success)).Inc()
}

// RecordOutboxRetry records a failed relay that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int64) {
	m.OutboxPending.Set(float64(count))
}

// RecordSchedulePass records one scheduling pass
func (m *Metrics) RecordSchedulePass(orders int, shortfalls int, duration time.Duration) {
	result := "complete"
	if shortfalls > 0 {
		result = "shortfall"
	}
	m.SchedulePasses.WithLabelValues(m.serviceName, result).Inc()
	m.ScheduleDuration.Observe(duration.Seconds())
	m.ScheduledBacklog.Set(float64(orders))
}

// RecordStageAssignment records an emitted stage assignment
func (m *Metrics) RecordStageAssignment(stage string) {
	m.StageAssignments.WithLabelValues(m.serviceName, stage).Inc()
}

// RecordCapacityShortfall records a stage left unscheduled
func (m *Metrics) RecordCapacityShortfall(stage, reason string) {
	m.CapacityShortfalls.WithLabelValues(m.serviceName, stage, reason).Inc()
}

// RecordOrderCreated records an order creation
func (m *Metrics) RecordOrderCreated(priority, cabinetType string) {
	m.OrdersCreated.WithLabelValues(m.serviceName, priority, cabinetType).Inc()
}

// RecordStageCompleted records a stage completion, and the order completion if it was the last stage
func (m *Metrics) RecordStageCompleted(stage string, orderCompleted bool) {
	m.StagesCompleted.WithLabelValues(m.serviceName, stage).Inc()
	if orderCompleted {
		m.OrdersCompleted.Inc()
	}
}

// RecordAbsence records a new absence
func (m *Metrics) RecordAbsence(role string) {
	m.AbsencesRecorded.WithLabelValues(m.serviceName, role).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
