package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/models"
)

const collectionName = "reservations"

// MongoReservationRepo implements ReservationRepository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo constructs a repo backed by the reservations collection of db.
func NewMongoReservationRepo(db *mongo.Database) *MongoReservationRepo {
	return &MongoReservationRepo{coll: db.Collection(collectionName)}
}

func activeStatusFilter() bson.M {
	return bson.M{"$in": bson.A{string(models.StatusPending), string(models.StatusConfirmed)}}
}

func (r *MongoReservationRepo) ListActiveForDate(ctx context.Context, date string) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"date": date, "status": activeStatusFilter()}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing reservations for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return out, nil
}

func (r *MongoReservationRepo) FindActiveForSlot(ctx context.Context, date, slot string) (*models.Reservation, error) {
	return r.findOne(ctx, bson.M{"date": date, "time": slot, "status": activeStatusFilter()})
}

func (r *MongoReservationRepo) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoReservationRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Reservation, error) {
	if transactionID == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"transactionId": transactionID})
}

func (r *MongoReservationRepo) findOne(ctx context.Context, filter bson.M) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var res models.Reservation
	if err := r.coll.FindOne(ctx, filter).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching reservation: %w", err)
	}
	return &res, nil
}

// Create inserts the reservation; duplicate-key errors from the partial slot
// index or the transaction index become conflicts.
func (r *MongoReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("error creating reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) Transition(ctx context.Context, id string, to models.ReservationStatus) (*models.Reservation, error) {
	if err := validateTarget(to); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": string(models.StatusPending)}
	update := bson.M{
		"$set":   bson.M{"status": string(to)},
		"$unset": bson.M{"expiresAt": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Reservation
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error transitioning reservation %s: %w", id, err)
	}

	existing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, classifyMissedWrite(existing, "")
}

func (r *MongoReservationRepo) DeleteIfOwnedAndPending(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "userId": userID, "status": string(models.StatusPending)}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("error deleting reservation %s: %w", id, err)
	}
	if res.DeletedCount == 1 {
		return nil
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return classifyMissedWrite(existing, userID)
}

func (r *MongoReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    string(models.StatusPending),
		"expiresAt": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing expired reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding expired reservations: %w", err)
	}
	return out, nil
}

func (r *MongoReservationRepo) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":        id,
		"status":    string(models.StatusPending),
		"expiresAt": bson.M{"$lte": now},
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("error deleting expired reservation %s: %w", id, err)
	}
	return res.DeletedCount == 1, nil
}
