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

// PolicyRepo stores one policy document per restaurant, keyed by the
// restaurant id.
type PolicyRepo struct {
	collection *mongo.Collection
}

func NewPolicyRepo(db *mongo.Database) *PolicyRepo {
	return &PolicyRepo{
		collection: db.Collection("policies"),
	}
}

func (r *PolicyRepo) Get(ctx context.Context, restaurantID uuid.UUID) (*tables.Policy, error) {
	var policy tables.Policy
	err := r.collection.FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&policy)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get policy: %w", err)
	}
	return &policy, nil
}

func (r *PolicyRepo) Save(ctx context.Context, policy *tables.Policy) error {
	if policy == nil {
		return fmt.Errorf("policy is nil")
	}

	filter := bson.M{"_id": policy.RestaurantID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, policy, opts); err != nil {
		return fmt.Errorf("cannot save policy: %w", err)
	}

	return nil
}
