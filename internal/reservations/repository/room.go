package repository

import (
	"context"
	"fmt"

	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RoomCollectionName = "Rooms"
)

type RoomRepository interface {
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error)
	Count(ctx context.Context) (int64, error)
	FindAvailable(ctx context.Context) ([]*model.Room, error)
	FindPopular(ctx context.Context, limit int) ([]*model.Room, error)
	IncrementTimesBooked(ctx context.Context, roomID int64) error
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(RoomCollectionName),
	}
}

func (r *mongoRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoRoomRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

// FindAvailable returns available rooms, least booked first, ties by id.
func (r *mongoRoomRepository) FindAvailable(ctx context.Context) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "times_booked", Value: 1},
		{Key: "_id", Value: 1},
	})
	return r.find(ctx, bson.M{"available": true}, opts)
}

// FindPopular returns the most booked rooms first.
func (r *mongoRoomRepository) FindPopular(ctx context.Context, limit int) ([]*model.Room, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "times_booked", Value: -1},
			{Key: "_id", Value: 1},
		}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// IncrementTimesBooked bumps the popularity counter. A room missing from the
// catalog is not an error.
func (r *mongoRoomRepository) IncrementTimesBooked(ctx context.Context, roomID int64) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": roomID}, bson.M{"$inc": bson.M{"times_booked": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment times_booked for room %d: %w", roomID, err)
	}
	return nil
}

func (r *mongoRoomRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Room, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := make([]*model.Room, 0)
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}
