package auditRepo

import (
	"context"
	"fmt"
	"time"

	"stitchtherapy/database"
	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepository appends and reads mutation audit entries.
type AuditRepository interface {
	// Append records an entry. Failures are the caller's to log, never to
	// abort the mutation for.
	Append(entry *models.AuditEntry) error
	// Recent lists the newest entries, capped at limit.
	Recent(limit int64) ([]models.AuditEntry, error)
}

// MongoAuditRepo implements AuditRepository using MongoDB.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates an AuditRepository backed by MongoDB.
func NewMongoAuditRepo() AuditRepository {
	return &MongoAuditRepo{coll: database.DB().Collection("audit_log")}
}

// Append records a new audit entry.
func (r *MongoAuditRepo) Append(entry *models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent lists the newest audit entries.
func (r *MongoAuditRepo) Recent(limit int64) ([]models.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
