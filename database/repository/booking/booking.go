package bookingRepo

import (
	"context"
	"errors"
	"time"

	"stitchtherapy/database"
	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrBookingConflict is returned by the exclusive write paths when the
// caller-supplied conflict check rejects the interval inside the transaction.
var ErrBookingConflict = errors.New("booking interval conflicts with an existing booking")

// ConflictCheck inspects a therapist's surrounding non-cancelled bookings and
// reports whether the interval being written collides with any of them. It is
// evaluated inside the write transaction so the check and the write commit
// atomically.
type ConflictCheck func(existing []models.Booking) bool

// BookingRepository defines data access for scheduled sessions.
type BookingRepository interface {
	// GetByID retrieves a booking by its unique ID.
	GetByID(id string) (*models.Booking, error)
	// GetByRoomID retrieves the booking that owns a signaling room.
	GetByRoomID(roomID string) (*models.Booking, error)
	// GetForActor lists bookings visible to the given identity and role.
	GetForActor(actorID, role string) ([]models.Booking, error)
	// FindOverlapCandidates returns non-cancelled bookings for a therapist
	// whose start lies inside [windowStart, windowEnd], excluding excludeID.
	// Callers must pad the window by OverlapPad on each side so bookings
	// that start outside it but extend into it are still matched.
	FindOverlapCandidates(therapistID string, windowStart, windowEnd time.Time, excludeID string) ([]models.Booking, error)
	// CreateExclusive inserts a booking inside a transaction, first running
	// the conflict check against overlap candidates for the same therapist.
	CreateExclusive(ctx context.Context, booking *models.Booking, check ConflictCheck) error
	// RescheduleExclusive moves a booking to a new start inside a
	// transaction, running the conflict check against candidates that
	// exclude the booking itself.
	RescheduleExclusive(ctx context.Context, booking *models.Booking, newStart time.Time, check ConflictCheck) error
	// Update persists a mutated booking document.
	Update(booking *models.Booking) error
	// CountSummary aggregates booking counts by status created since a time.
	CountSummary(since time.Time) (models.BookingSummary, error)
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository backed by MongoDB.
func NewMongoBookingRepo() BookingRepository {
	coll := database.DB().Collection("bookings")
	repo := &MongoBookingRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		logIndexFailure("bookings", err)
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "therapistId", Value: 1}, {Key: "scheduledAt", Value: 1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}}},
		{Keys: bson.D{{Key: "roomId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
