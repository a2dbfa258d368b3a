package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

type ReservationRepo struct {
	collection *mongo.Collection
}

func NewReservationRepo(db *mongo.Database) *ReservationRepo {
	return &ReservationRepo{
		collection: db.Collection("reservations"),
	}
}

func (r *ReservationRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("cannot create reservation indexes: %w", err)
	}
	return nil
}

func (r *ReservationRepo) Create(ctx context.Context, reservation *tables.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("cannot create reservation: %w", err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Reservation, error) {
	var reservation tables.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *ReservationRepo) ListByDate(ctx context.Context, restaurantID uuid.UUID, date string) ([]*tables.Reservation, error) {
	filter := bson.M{"restaurant_id": restaurantID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations by date: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*tables.Reservation
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode reservations: %w", err)
	}

	return result, nil
}

func (r *ReservationRepo) FindByIdempotencyKey(ctx context.Context, restaurantID uuid.UUID, key string) (*tables.Reservation, error) {
	var reservation tables.Reservation
	filter := bson.M{"restaurant_id": restaurantID, "idempotency_key": key}
	err := r.collection.FindOne(ctx, filter).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find reservation by idempotency key: %w", err)
	}
	return &reservation, nil
}

func (r *ReservationRepo) Save(ctx context.Context, reservation *tables.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	filter := bson.M{"_id": reservation.ID}
	if _, err := r.collection.ReplaceOne(ctx, filter, reservation); err != nil {
		return fmt.Errorf("cannot update reservation: %w", err)
	}

	return nil
}
