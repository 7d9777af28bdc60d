// File: database/repository/booking/crud.go
package bookingRepo

import (
	"errors"
	"fmt"
	"time"

	"stitchtherapy/models"
	"stitchtherapy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func logIndexFailure(coll string, err error) {
	utils.GetLogger().Warn("failed to create indexes", zap.String("collection", coll), zap.Error(err))
}

// GetByID retrieves a booking document by its ID.
func (r *MongoBookingRepo) GetByID(id string) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// GetByRoomID retrieves the booking owning a signaling room.
func (r *MongoBookingRepo) GetByRoomID(roomID string) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking for room %s: %w", roomID, err)
	}
	return &booking, nil
}

// GetForActor lists bookings visible to an identity: therapists see their own
// calendar, admins see everything, clients see their own sessions.
func (r *MongoBookingRepo) GetForActor(actorID, role string) ([]models.Booking, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	var filter bson.M
	switch role {
	case models.RoleTherapist:
		filter = bson.M{"therapistId": actorID}
	case models.RoleAdmin:
		filter = bson.M{}
	default:
		filter = bson.M{"clientId": actorID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// Update persists a mutated booking document.
func (r *MongoBookingRepo) Update(booking *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	booking.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": booking.ID}, bson.M{"$set": booking})
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s not found", booking.ID)
	}
	return nil
}
