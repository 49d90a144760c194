package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrInvalidStage         = errors.New("invalid stage: stages must be completed in routing order")
	ErrOutOfRange           = errors.New("stage progress out of range: must be between 0 and 99")
	ErrOrderAlreadyComplete = errors.New("order is already complete")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidCompletion    = errors.New("completion date is required")
)

// Order is the aggregate root for the Production bounded context
type Order struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID             string             `bson:"orderId" json:"orderId"`
	CustomerName        string             `bson:"customerName" json:"customerName"`
	CabinetType         string             `bson:"cabinetType" json:"cabinetType"`
	Color               string             `bson:"color" json:"color"`
	Quantity            int                `bson:"quantity" json:"quantity"`
	StartDate           time.Time          `bson:"startDate" json:"startDate"`
	CompletionDate      time.Time          `bson:"completionDate" json:"completionDate"`
	CompletedStages     []string           `bson:"completedStages" json:"completedStages"`
	ActiveStageProgress float64            `bson:"activeStageProgress" json:"activeStageProgress"`
	NextStage           string             `bson:"nextStage" json:"nextStage"`
	CompletedWeight     int                `bson:"completedWeight" json:"completedWeight"`
	Progress            float64            `bson:"progress" json:"progress"`
	Status              OrderStatus        `bson:"status" json:"status"`
	Priority            Priority           `bson:"priority" json:"priority"`
	MachineQuota        int                `bson:"machineQuota" json:"machineQuota"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
	DomainEvents        []DomainEvent      `bson:"-" json:"-"`
}

// NewOrder creates a new Order aggregate starting on startDate with nothing completed
func NewOrder(orderID, customerName, cabinetType, color string, quantity int, startDate, completionDate time.Time, routing *Routing) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if completionDate.IsZero() {
		return nil, ErrInvalidCompletion
	}

	now := time.Now()
	order := &Order{
		OrderID:         orderID,
		CustomerName:    customerName,
		CabinetType:     cabinetType,
		Color:           color,
		Quantity:        quantity,
		StartDate:       Day(startDate),
		CompletionDate:  Day(completionDate),
		CompletedStages: make([]string, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
		DomainEvents:    make([]DomainEvent, 0),
	}
	order.Normalize(routing)
	order.ApplyPriority(startDate)

	order.AddDomainEvent(&OrderCreatedEvent{
		OrderID:        order.OrderID,
		CustomerName:   order.CustomerName,
		CabinetType:    order.CabinetType,
		Quantity:       order.Quantity,
		StartDate:      FormatDay(order.StartDate),
		CompletionDate: FormatDay(order.CompletionDate),
		Priority:       string(order.Priority),
		CreatedAt:      now,
	})

	return order, nil
}

// IsComplete reports whether every routing stage is done
func (o *Order) IsComplete() bool {
	return o.Status == OrderStatusCompleted
}

// ApplyPriority derives the dispatch tier and machine quota at the reference date
func (o *Order) ApplyPriority(referenceDate time.Time) {
	if o.Status == OrderStatusCompleted {
		o.Priority = PriorityLow
		o.MachineQuota = 0
		return
	}
	o.Priority, o.MachineQuota = PriorityFor(o.DaysRemaining(referenceDate))
}

// DaysRemaining is the number of calendar days from referenceDate to the completion date
func (o *Order) DaysRemaining(referenceDate time.Time) int {
	return DaysBetween(referenceDate, o.CompletionDate)
}

// MarkStageComplete completes the current next stage. The order is left untouched on failure.
func (o *Order) MarkStageComplete(routing *Routing, stage string) error {
	next, err := o.checkMutable(routing, stage)
	if err != nil {
		return err
	}

	prefix := routing.SanitizePrefix(o.CompletedStages)
	o.CompletedStages = append(prefix, next)
	o.ActiveStageProgress = 0
	o.Normalize(routing)
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(&StageCompletedEvent{
		OrderID:     o.OrderID,
		Stage:       next,
		NextStage:   o.NextStage,
		Progress:    o.Progress,
		CompletedAt: o.UpdatedAt,
	})

	if o.IsComplete() {
		o.AddDomainEvent(&OrderCompletedEvent{
			OrderID:     o.OrderID,
			Quantity:    o.Quantity,
			CompletedAt: o.UpdatedAt,
		})
	}

	return nil
}

// UpdateActiveProgress sets the partial completion of the current next stage.
// The order is left untouched on failure.
func (o *Order) UpdateActiveProgress(routing *Routing, stage string, percent float64) error {
	if _, err := o.checkMutable(routing, stage); err != nil {
		return err
	}
	if percent < 0 || percent > MaxActiveStageProgress {
		return ErrOutOfRange
	}
	// progress never moves backwards
	if percent < clamp(o.ActiveStageProgress, 0, MaxActiveStageProgress) {
		return fmt.Errorf("%w: %.2f is below current %.2f", ErrOutOfRange, percent, o.ActiveStageProgress)
	}

	o.CompletedStages = routing.SanitizePrefix(o.CompletedStages)
	o.ActiveStageProgress = percent
	o.Normalize(routing)
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(&StageProgressUpdatedEvent{
		OrderID:             o.OrderID,
		Stage:               o.NextStage,
		ActiveStageProgress: o.ActiveStageProgress,
		Progress:            o.Progress,
		UpdatedAt:           o.UpdatedAt,
	})

	return nil
}

// checkMutable validates that stage is the order's current next stage
func (o *Order) checkMutable(routing *Routing, stage string) (string, error) {
	prefix := routing.SanitizePrefix(o.CompletedStages)
	next := routing.NextStage(len(prefix))
	if next == StageNone {
		return "", ErrOrderAlreadyComplete
	}
	if stage != next {
		return "", fmt.Errorf("%w: expected %q, got %q", ErrInvalidStage, next, stage)
	}
	return next, nil
}

// MarkDeleted records the removal of the order
func (o *Order) MarkDeleted() {
	o.AddDomainEvent(&OrderDeletedEvent{
		OrderID:   o.OrderID,
		DeletedAt: time.Now(),
	})
}

// AddDomainEvent adds a domain event
func (o *Order) AddDomainEvent(event DomainEvent) {
	o.DomainEvents = append(o.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (o *Order) ClearDomainEvents() {
	o.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (o *Order) GetDomainEvents() []DomainEvent {
	return o.DomainEvents
}
