package availability

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the conditional updates rely on.
// The unique index on slot id is what makes each slot document the
// single arbitration point for its own state.
func (repo *MongoAvailabilityRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "date", Value: 1}, {Key: "start", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "state", Value: 1}, {Key: "holdExpiresAt", Value: 1}},
		},
	}
	if _, err := repo.slotColl.Indexes().CreateMany(ctx, slotIndexes); err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}

	closureIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.closureColl.Indexes().CreateOne(ctx, closureIndex); err != nil {
		return fmt.Errorf("failed to create closure index: %w", err)
	}
	return nil
}
