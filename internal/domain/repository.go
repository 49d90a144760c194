package domain

import "context"

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, orderID string) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	Delete(ctx context.Context, order *Order) error
}

// AbsenceRepository defines the interface for absence persistence
type AbsenceRepository interface {
	Save(ctx context.Context, absence *AbsenceRecord) error
	FindByID(ctx context.Context, absenceID string) (*AbsenceRecord, error)
	FindAll(ctx context.Context) ([]AbsenceRecord, error)
	FindByResource(ctx context.Context, resourceID string) ([]AbsenceRecord, error)
	Delete(ctx context.Context, absenceID string) error
}
