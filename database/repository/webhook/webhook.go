package webhookRepo

import (
	"context"
	"fmt"
	"time"

	"stitchtherapy/database"
	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WebhookRepository manages registered outbound webhook keys.
type WebhookRepository interface {
	// GetActiveForEvent returns active keys subscribed to the event type.
	GetActiveForEvent(event string) ([]models.WebhookKey, error)
	// GetAll lists every registered key.
	GetAll() ([]models.WebhookKey, error)
	// Create registers a new key.
	Create(key *models.WebhookKey) error
	// RecordResult updates delivery statistics for a key after a dispatch.
	RecordResult(id string, status int, success bool) error
	// Delete removes a key.
	Delete(id string) error
}

// MongoWebhookRepo implements WebhookRepository using MongoDB.
type MongoWebhookRepo struct {
	coll *mongo.Collection
}

// NewMongoWebhookRepo creates a WebhookRepository backed by MongoDB.
func NewMongoWebhookRepo() WebhookRepository {
	return &MongoWebhookRepo{coll: database.DB().Collection("webhook_keys")}
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// GetActiveForEvent returns active keys subscribed to the given event type.
func (r *MongoWebhookRepo) GetActiveForEvent(event string) ([]models.WebhookKey, error) {
	return r.find(bson.M{"active": true, "allowedEvents": event})
}

// GetAll lists every registered key.
func (r *MongoWebhookRepo) GetAll() ([]models.WebhookKey, error) {
	return r.find(bson.M{})
}

func (r *MongoWebhookRepo) find(filter bson.M) ([]models.WebhookKey, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []models.WebhookKey
	if err := cursor.All(ctx, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode webhook keys: %w", err)
	}
	return keys, nil
}

// Create registers a new webhook key.
func (r *MongoWebhookRepo) Create(key *models.WebhookKey) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	key.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, key); err != nil {
		return fmt.Errorf("failed to create webhook key: %w", err)
	}
	return nil
}

// RecordResult updates delivery statistics for a key after a dispatch attempt.
func (r *MongoWebhookRepo) RecordResult(id string, status int, success bool) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	counter := "failureCount"
	if success {
		counter = "successCount"
	}
	update := bson.M{
		"$set": bson.M{"lastStatus": status, "lastSentAt": time.Now()},
		"$inc": bson.M{counter: 1},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to record webhook result for %s: %w", id, err)
	}
	return nil
}

// Delete removes a webhook key.
func (r *MongoWebhookRepo) Delete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete webhook key %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("webhook key %s not found", id)
	}
	return nil
}
