package repository

import (
	"context"
	"fmt"

	"staybook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RoomGuardCollectionName = "Room_guards"
)

// RoomGuardRepository serializes holds per room. Every hold transaction
// writes the room's guard document first, so two transactions on the same
// room conflict and the later one is retried by the driver.
type RoomGuardRepository interface {
	Touch(ctx context.Context, roomID int64) error
}

type mongoRoomGuardRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomGuardRepository(cfg *config.Config) RoomGuardRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomGuardRepository{
		cfg:        cfg,
		collection: db.Collection(RoomGuardCollectionName),
	}
}

func (r *mongoRoomGuardRepository) Touch(ctx context.Context, roomID int64) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": roomID}
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"updated_at": now()},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to touch room guard %d: %w", roomID, err)
	}
	return nil
}
