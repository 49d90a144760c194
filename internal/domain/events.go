package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// OrderCreatedEvent is published when an order enters the backlog
type OrderCreatedEvent struct {
	OrderID        string    `json:"orderId"`
	CustomerName   string    `json:"customerName"`
	CabinetType    string    `json:"cabinetType"`
	Quantity       int       `json:"quantity"`
	StartDate      string    `json:"startDate"`
	CompletionDate string    `json:"completionDate"`
	Priority       string    `json:"priority"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (e *OrderCreatedEvent) EventType() string    { return "production.order.created" }
func (e *OrderCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// StageCompletedEvent is published when an order finishes a routing stage
type StageCompletedEvent struct {
	OrderID     string    `json:"orderId"`
	Stage       string    `json:"stage"`
	NextStage   string    `json:"nextStage"`
	Progress    float64   `json:"progress"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *StageCompletedEvent) EventType() string    { return "production.order.stage-completed" }
func (e *StageCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// StageProgressUpdatedEvent is published when partial progress on the active stage changes
type StageProgressUpdatedEvent struct {
	OrderID             string    `json:"orderId"`
	Stage               string    `json:"stage"`
	ActiveStageProgress float64   `json:"activeStageProgress"`
	Progress            float64   `json:"progress"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (e *StageProgressUpdatedEvent) EventType() string {
	return "production.order.stage-progress-updated"
}
func (e *StageProgressUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// OrderCompletedEvent is published when the last routing stage is completed
type OrderCompletedEvent struct {
	OrderID     string    `json:"orderId"`
	Quantity    int       `json:"quantity"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *OrderCompletedEvent) EventType() string    { return "production.order.completed" }
func (e *OrderCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// OrderDeletedEvent is published when an order is removed from the backlog
type OrderDeletedEvent struct {
	OrderID   string    `json:"orderId"`
	DeletedAt time.Time `json:"deletedAt"`
}

func (e *OrderDeletedEvent) EventType() string    { return "production.order.deleted" }
func (e *OrderDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
