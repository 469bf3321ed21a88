package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LockCollectionName = "Reservation_locks"
)

type LockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) error
	FindByRequestID(ctx context.Context, requestID string) (*model.ReservationLock, error)
	FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]*model.ReservationLock, error)
	Transition(ctx context.Context, requestID, from, to string) (*model.ReservationLock, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// Create inserts lock. A second lock for the same request_id fails with
// ErrDuplicateRequest through the unique index.
func (r *mongoLockRepository) Create(ctx context.Context, lock *model.ReservationLock) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	lock.CreatedAt = ts
	lock.UpdatedAt = ts

	result, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservationserrors.ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lock.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLockRepository) FindByRequestID(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var lock model.ReservationLock
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation lock: %w", err)
	}

	return &lock, nil
}

// FindOverlapping returns active locks on roomID whose inclusive range
// intersects [start, end].
func (r *mongoLockRepository) FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]*model.ReservationLock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":    roomID,
		"status":     bson.M{"$in": model.ActiveLockStatuses},
		"start_date": bson.M{"$lte": end},
		"end_date":   bson.M{"$gte": start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping locks: %w", err)
	}
	defer cursor.Close(ctx)

	var locks []*model.ReservationLock
	if err = cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping locks: %w", err)
	}

	return locks, nil
}

// Transition moves the lock from one status to another only if it is still
// in from. It returns the updated lock, or ErrTransitionLost if another
// writer got there first.
func (r *mongoLockRepository) Transition(ctx context.Context, requestID, from, to string) (*model.ReservationLock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"request_id": requestID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var lock model.ReservationLock
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrTransitionLost
		}
		return nil, fmt.Errorf("failed to transition reservation lock: %w", err)
	}

	return &lock, nil
}

func (r *mongoLockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
