package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rakishiii/production-scheduler/internal/domain"
	"github.com/Rakishiii/production-scheduler/pkg/cloudevents"
	"github.com/Rakishiii/production-scheduler/pkg/kafka"
	mongoclient "github.com/Rakishiii/production-scheduler/pkg/mongodb"
	"github.com/Rakishiii/production-scheduler/pkg/outbox"
	outboxMongo "github.com/Rakishiii/production-scheduler/pkg/outbox/mongodb"
)

const ordersCollection = "production_orders"

// OrderRepository implements domain.OrderRepository for MongoDB. Domain events are written
// to the outbox in the same transaction as the order.
type OrderRepository struct {
	client       *mongoclient.InstrumentedClient
	collection   *mongoclient.InstrumentedCollection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
	routing      *domain.Routing
}

// NewOrderRepository creates the repository and its indexes. routing is used to migrate
// records written before per-stage progress was stored.
func NewOrderRepository(client *mongoclient.InstrumentedClient, eventFactory *cloudevents.EventFactory, routing *domain.Routing) *OrderRepository {
	repo := &OrderRepository{
		client:       client,
		collection:   client.Collection(ordersCollection),
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: eventFactory,
		routing:      routing,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo.ensureIndexes(ctx)
	_ = repo.outboxRepo.EnsureIndexes(ctx)

	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "completionDate", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "completionDate", Value: 1}}},
	}
	_ = r.collection.EnsureIndexes(ctx, indexes)
}

// GetOutboxRepository returns the outbox the repository writes to, for the relay
func (r *OrderRepository) GetOutboxRepository() *outboxMongo.OutboxRepository {
	return r.outboxRepo
}

// Save upserts the order and appends its pending domain events to the outbox
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		filter := bson.M{"orderId": order.OrderID}
		update := bson.M{"$set": order}
		if _, err := r.collection.UpdateOne(sessCtx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		return r.writeOutbox(sessCtx, order)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	order.ClearDomainEvents()
	return nil
}

// Delete removes the order and records its pending events, normally OrderDeleted
func (r *OrderRepository) Delete(ctx context.Context, order *domain.Order) error {
	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		deleted, err := r.collection.DeleteOne(sessCtx, bson.M{"orderId": order.OrderID})
		if err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		if deleted == 0 {
			return fmt.Errorf("order %s not found", order.OrderID)
		}

		return r.writeOutbox(sessCtx, order)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	order.ClearDomainEvents()
	return nil
}

func (r *OrderRepository) writeOutbox(sessCtx mongo.SessionContext, order *domain.Order) error {
	domainEvents := order.GetDomainEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))
	for _, e := range domainEvents {
		cloudEvent := r.eventFactory.CreateEvent(sessCtx, e.EventType(), "order/"+order.OrderID, e)

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(order.OrderID, "Order", kafka.Topics.ProductionEvents, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the order does not exist
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var raw bson.Raw
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}, &raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.decode(raw)
}

// FindAll returns every order sorted by completion date
func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var raws []bson.Raw
	opts := options.Find().SetSort(bson.D{{Key: "completionDate", Value: 1}, {Key: "orderId", Value: 1}})
	if err := r.collection.FindAll(ctx, bson.M{}, &raws, opts); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(raws))
	for _, raw := range raws {
		order, err := r.decode(raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// decode unmarshals an order; records without activeStageProgress carry only a bare
// progress number and are migrated onto the routing
func (r *OrderRepository) decode(raw bson.Raw) (*domain.Order, error) {
	var order domain.Order
	if err := bson.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	if order.CompletedStages == nil {
		order.CompletedStages = []string{}
	}

	if _, err := raw.LookupErr("activeStageProgress"); err != nil {
		if legacy, ok := numericValue(raw.Lookup("progress")); ok {
			domain.MigrateLegacyProgress(&order, r.routing, legacy)
		}
	}
	return &order, nil
}

// numericValue reads a double, int32 or int64 field as float64
func numericValue(v bson.RawValue) (float64, bool) {
	if f, ok := v.DoubleOK(); ok {
		return f, true
	}
	if i, ok := v.Int32OK(); ok {
		return float64(i), true
	}
	if i, ok := v.Int64OK(); ok {
		return float64(i), true
	}
	return 0, false
}
