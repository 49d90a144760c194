package outbox

import "context"

// Repository defines outbox event persistence
type Repository interface {
	// SaveAll saves events; called inside the aggregate's transaction
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns up to limit relayable events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// CountPending counts relayable events
	CountPending(ctx context.Context) (int64, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry records a failed relay attempt
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
