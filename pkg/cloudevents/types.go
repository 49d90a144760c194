package cloudevents

import (
	"time"
)

// Event types for production domain events
const (
	OrderCreated              = "production.order.created"
	OrderStageCompleted       = "production.order.stage-completed"
	OrderStageProgressUpdated = "production.order.stage-progress-updated"
	OrderCompleted            = "production.order.completed"
	OrderDeleted              = "production.order.deleted"
)

// SourceScheduler is the source attribute of events emitted by the scheduler service
const SourceScheduler = "/production/scheduler-service"

// Extension attribute names
const (
	ExtCorrelationID = "prodcorrelationid"
	ExtOrderID       = "prodorderid"
	ExtTraceParent   = "traceparent"
)

// ProductionCloudEvent is a CloudEvents v1.0 envelope for production events
type ProductionCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"prodcorrelationid,omitempty"`
	OrderID       string `json:"prodorderid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}

// Headers returns the binary-mode header set for the event, ce- prefixed
func (e *ProductionCloudEvent) Headers() map[string]string {
	headers := map[string]string{
		"ce-specversion": e.SpecVersion,
		"ce-type":        e.Type,
		"ce-source":      e.Source,
		"ce-id":          e.ID,
		"ce-time":        e.Time.Format(time.RFC3339),
		"content-type":   e.DataContentType,
	}
	if e.Subject != "" {
		headers["ce-subject"] = e.Subject
	}
	if e.CorrelationID != "" {
		headers["ce-"+ExtCorrelationID] = e.CorrelationID
	}
	if e.OrderID != "" {
		headers["ce-"+ExtOrderID] = e.OrderID
	}
	if e.TraceParent != "" {
		headers["ce-"+ExtTraceParent] = e.TraceParent
	}
	return headers
}
