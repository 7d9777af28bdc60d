// File: database/repository/booking/transaction.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OverlapPad bounds how far from the interval under test an existing booking
// could start and still intersect it. A day comfortably exceeds any session
// duration.
const OverlapPad = 24 * time.Hour

func (r *MongoBookingRepo) candidatesInSession(sc mongo.SessionContext, therapistID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	filter := bson.M{
		"therapistId": therapistID,
		"scheduledAt": bson.M{"$gte": start.Add(-OverlapPad), "$lte": end.Add(OverlapPad)},
		"status":      bson.M{"$ne": models.BookingCancelled},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := r.coll.Find(sc, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlap candidates: %w", err)
	}
	defer cursor.Close(sc)

	var bookings []models.Booking
	if err := cursor.All(sc, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode overlap candidates: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) runInTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}
	return nil
}

// CreateExclusive inserts a booking only if the conflict check passes against
// the therapist's surrounding bookings, inside a single transaction. The
// query-then-insert race of a plain check-then-act path is closed here.
func (r *MongoBookingRepo) CreateExclusive(ctx context.Context, booking *models.Booking, check ConflictCheck) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return r.runInTransaction(ctx, func(sc mongo.SessionContext) error {
		existing, err := r.candidatesInSession(sc, booking.TherapistID, booking.ScheduledAt, booking.EndsAt(), "")
		if err != nil {
			return err
		}
		if check != nil && check(existing) {
			return ErrBookingConflict
		}
		if _, err := r.coll.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

// RescheduleExclusive moves a booking to newStart only if the conflict check
// passes against candidates excluding the booking itself. On success the
// booking argument carries the new schedule.
func (r *MongoBookingRepo) RescheduleExclusive(ctx context.Context, booking *models.Booking, newStart time.Time, check ConflictCheck) error {
	newEnd := newStart.Add(booking.Duration())

	return r.runInTransaction(ctx, func(sc mongo.SessionContext) error {
		existing, err := r.candidatesInSession(sc, booking.TherapistID, newStart, newEnd, booking.ID)
		if err != nil {
			return err
		}
		if check != nil && check(existing) {
			return ErrBookingConflict
		}

		booking.ScheduledAt = newStart
		booking.UpdatedAt = time.Now()
		result, err := r.coll.UpdateOne(sc, bson.M{"id": booking.ID}, bson.M{"$set": booking})
		if err != nil {
			return fmt.Errorf("reschedule booking failed: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("booking %s not found", booking.ID)
		}
		return nil
	})
}
