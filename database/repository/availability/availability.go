package availabilityRepo

import (
	"context"
	"time"

	"stitchtherapy/database"
	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRepository defines data access for therapist availability windows.
type AvailabilityRepository interface {
	// GetByID retrieves a window by its unique ID.
	GetByID(id string) (*models.AvailabilityWindow, error)
	// GetByTherapist retrieves all windows owned by a therapist.
	GetByTherapist(therapistID string) ([]models.AvailabilityWindow, error)
	// GetActiveByTherapist retrieves only windows with the active flag set.
	GetActiveByTherapist(therapistID string) ([]models.AvailabilityWindow, error)
	// GetAll retrieves every window across therapists (admin view).
	GetAll() ([]models.AvailabilityWindow, error)
	// Create inserts a new window.
	Create(window *models.AvailabilityWindow) error
	// Update modifies an existing window.
	Update(window *models.AvailabilityWindow) error
	// Delete removes a window by ID.
	Delete(id string) error
}

// MongoAvailabilityRepo implements AvailabilityRepository using MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo creates an AvailabilityRepository backed by MongoDB.
func NewMongoAvailabilityRepo() AvailabilityRepository {
	coll := database.DB().Collection("availability_windows")
	repo := &MongoAvailabilityRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		logIndexFailure("availability_windows", err)
	}
	return repo
}

func (r *MongoAvailabilityRepo) ensureIndexes() error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "therapistId", Value: 1}}},
		{Keys: bson.D{{Key: "therapistId", Value: 1}, {Key: "active", Value: 1}}},
	})
	return err
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
