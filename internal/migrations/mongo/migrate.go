package mongo

import (
	"context"
	"fmt"

	bookingsrepo "staybook/internal/bookings/repository"
	reservationsrepo "staybook/internal/reservations/repository"
	"staybook/internal/migrations/mongo/validators"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_request_id"),
		},
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "created_at", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "compensation_pending", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"compensation_pending": true}),
		},
	}

	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_request_id"),
		},
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "end_date", Value: 1},
		}},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "available", Value: 1},
			{Key: "times_booked", Value: 1},
		}},
		{Keys: bson.D{{Key: "times_booked", Value: -1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the services use.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		reservationsrepo.LockCollectionName: {
			Indexes:   ReservationLocksIndexes,
			Validator: validators.ReservationLockValidator,
		},
		reservationsrepo.RoomCollectionName: {
			Indexes:   RoomsIndexes,
			Validator: validators.RoomValidator,
		},
		reservationsrepo.RoomGuardCollectionName: {
			Validator: validators.RoomGuardValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

// SeedRooms upserts rooms 1..count without touching existing counters.
func SeedRooms(ctx context.Context, client *mongo.Client, dbName string, count int, log *logger.Logger) error {
	coll := client.Database(dbName).Collection(reservationsrepo.RoomCollectionName)

	models := make([]mongo.WriteModel, 0, count)
	for _, room := range DemoRooms(count) {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": room.ID}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"hotel_id":     room.HotelID,
				"number":       room.Number,
				"capacity":     room.Capacity,
				"available":    room.Available,
				"times_booked": room.TimesBooked,
			}}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}

	result, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to seed rooms: %w", err)
	}
	log.Info("Rooms seeded", "requested", count, "inserted", result.UpsertedCount)
	return nil
}

func DemoRooms(count int) []model.Room {
	rooms := make([]model.Room, 0, count)
	for i := 1; i <= count; i++ {
		rooms = append(rooms, model.Room{
			ID:        int64(i),
			HotelID:   1,
			Number:    fmt.Sprintf("%d%02d", (i-1)/20+1, (i-1)%20+1),
			Capacity:  2,
			Available: true,
		})
	}
	return rooms
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
