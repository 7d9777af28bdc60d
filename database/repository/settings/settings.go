package settingsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stitchtherapy/database"
	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const globalKey = "global"

// SettingsRepository manages the single platform settings document.
type SettingsRepository interface {
	// Get returns the global settings document, creating it with defaults
	// when absent.
	Get() (*models.PlatformSettings, error)
	// Update replaces the global settings document.
	Update(settings *models.PlatformSettings) error
}

// MongoSettingsRepo implements SettingsRepository using MongoDB.
type MongoSettingsRepo struct {
	coll *mongo.Collection
}

// NewMongoSettingsRepo creates a SettingsRepository backed by MongoDB.
func NewMongoSettingsRepo() SettingsRepository {
	return &MongoSettingsRepo{coll: database.DB().Collection("platform_settings")}
}

// Get returns the global settings document, creating defaults when absent.
func (r *MongoSettingsRepo) Get() (*models.PlatformSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var settings models.PlatformSettings
	err := r.coll.FindOne(ctx, bson.M{"key": globalKey}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		settings = models.PlatformSettings{
			Key:                   globalKey,
			CallLinkActiveMinutes: 5,
			UpdatedAt:             time.Now(),
		}
		if _, insertErr := r.coll.InsertOne(ctx, settings); insertErr != nil {
			return nil, fmt.Errorf("failed to seed platform settings: %w", insertErr)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch platform settings: %w", err)
	}
	return &settings, nil
}

// Update replaces the global settings document.
func (r *MongoSettingsRepo) Update(settings *models.PlatformSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	settings.Key = globalKey
	settings.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"key": globalKey}, settings, opts); err != nil {
		return fmt.Errorf("failed to update platform settings: %w", err)
	}
	return nil
}
