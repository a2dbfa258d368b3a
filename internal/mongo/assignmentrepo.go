package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

type AssignmentRepo struct {
	collection *mongo.Collection
}

func NewAssignmentRepo(db *mongo.Database) *AssignmentRepo {
	return &AssignmentRepo{
		collection: db.Collection("assignments"),
	}
}

func (r *AssignmentRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reservation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "window.date", Value: 1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("cannot create assignment indexes: %w", err)
	}
	return nil
}

// Create persists an assignment. A second assignment for the same
// reservation, written by another engine instance, is a conflict.
func (r *AssignmentRepo) Create(ctx context.Context, assignment *tables.Assignment) error {
	if assignment == nil {
		return fmt.Errorf("assignment is nil")
	}

	if _, err := r.collection.InsertOne(ctx, assignment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: reservation %s already persisted", tables.ErrAssignmentConflict, assignment.ReservationID)
		}
		return fmt.Errorf("cannot create assignment: %w", err)
	}

	return nil
}

func (r *AssignmentRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"reservation_id": reservationID}); err != nil {
		return fmt.Errorf("cannot delete assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepo) ListFromDate(ctx context.Context, date string) ([]*tables.Assignment, error) {
	filter := bson.M{"window.date": bson.M{"$gte": date}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list assignments: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*tables.Assignment
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode assignments: %w", err)
	}

	return result, nil
}
