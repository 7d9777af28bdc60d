// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"errors"
	"fmt"
	"time"

	"stitchtherapy/models"
	"stitchtherapy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func logIndexFailure(coll string, err error) {
	utils.GetLogger().Warn("failed to create indexes", zap.String("collection", coll), zap.Error(err))
}

// GetByID retrieves a window document by its ID.
func (r *MongoAvailabilityRepo) GetByID(id string) (*models.AvailabilityWindow, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var window models.AvailabilityWindow
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&window); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch availability window %s: %w", id, err)
	}
	return &window, nil
}

// GetByTherapist retrieves all windows owned by a therapist.
func (r *MongoAvailabilityRepo) GetByTherapist(therapistID string) ([]models.AvailabilityWindow, error) {
	return r.find(bson.M{"therapistId": therapistID})
}

// GetActiveByTherapist retrieves only active windows for a therapist.
func (r *MongoAvailabilityRepo) GetActiveByTherapist(therapistID string) ([]models.AvailabilityWindow, error) {
	return r.find(bson.M{"therapistId": therapistID, "active": true})
}

// GetAll retrieves every window across therapists.
func (r *MongoAvailabilityRepo) GetAll() ([]models.AvailabilityWindow, error) {
	return r.find(bson.M{})
}

func (r *MongoAvailabilityRepo) find(filter bson.M) ([]models.AvailabilityWindow, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	defer cursor.Close(ctx)

	var windows []models.AvailabilityWindow
	if err := cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode availability windows: %w", err)
	}
	return windows, nil
}

// Create inserts a new window document.
func (r *MongoAvailabilityRepo) Create(window *models.AvailabilityWindow) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	window.CreatedAt = now
	window.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, window); err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	return nil
}

// Update modifies an existing window document.
func (r *MongoAvailabilityRepo) Update(window *models.AvailabilityWindow) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	window.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": window.ID}, bson.M{"$set": window})
	if err != nil {
		return fmt.Errorf("failed to update availability window %s: %w", window.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("availability window %s not found", window.ID)
	}
	return nil
}

// Delete removes a window document by its ID.
func (r *MongoAvailabilityRepo) Delete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete availability window %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("availability window %s not found", id)
	}
	return nil
}
