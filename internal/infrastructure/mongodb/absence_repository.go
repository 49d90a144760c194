package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rakishiii/production-scheduler/internal/domain"
	mongoclient "github.com/Rakishiii/production-scheduler/pkg/mongodb"
)

const absencesCollection = "resource_absences"

// AbsenceRepository implements domain.AbsenceRepository for MongoDB
type AbsenceRepository struct {
	collection *mongoclient.InstrumentedCollection
}

// NewAbsenceRepository creates the repository and its indexes
func NewAbsenceRepository(client *mongoclient.InstrumentedClient) *AbsenceRepository {
	repo := &AbsenceRepository{collection: client.Collection(absencesCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo.ensureIndexes(ctx)

	return repo
}

func (r *AbsenceRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "absenceId", Value: 1}}, Options: options.Index().SetUnique(true)},
		// one record per resource per day
		{Keys: bson.D{{Key: "resourceId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}
	_ = r.collection.EnsureIndexes(ctx, indexes)
}

// Save inserts the absence. A second record for the same resource and day is rejected.
func (r *AbsenceRepository) Save(ctx context.Context, absence *domain.AbsenceRecord) error {
	if err := r.collection.InsertOne(ctx, absence); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s on %s", domain.ErrAbsenceExists, absence.ResourceID, domain.FormatDay(absence.Date))
		}
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the absence does not exist
func (r *AbsenceRepository) FindByID(ctx context.Context, absenceID string) (*domain.AbsenceRecord, error) {
	var absence domain.AbsenceRecord
	err := r.collection.FindOne(ctx, bson.M{"absenceId": absenceID}, &absence)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &absence, nil
}

// FindAll returns every absence ordered by day and resource
func (r *AbsenceRepository) FindAll(ctx context.Context) ([]domain.AbsenceRecord, error) {
	return r.find(ctx, bson.M{})
}

// FindByResource returns the absences of one resource ordered by day
func (r *AbsenceRepository) FindByResource(ctx context.Context, resourceID string) ([]domain.AbsenceRecord, error) {
	return r.find(ctx, bson.M{"resourceId": resourceID})
}

func (r *AbsenceRepository) find(ctx context.Context, filter bson.M) ([]domain.AbsenceRecord, error) {
	absences := make([]domain.AbsenceRecord, 0)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "resourceId", Value: 1}})
	if err := r.collection.FindAll(ctx, filter, &absences, opts); err != nil {
		return nil, err
	}
	return absences, nil
}

// Delete removes the absence
func (r *AbsenceRepository) Delete(ctx context.Context, absenceID string) error {
	deleted, err := r.collection.DeleteOne(ctx, bson.M{"absenceId": absenceID})
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("absence %s not found", absenceID)
	}
	return nil
}
