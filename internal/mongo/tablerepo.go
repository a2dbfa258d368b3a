package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

// TableRepo owns the MongoDB connection; the other repositories are built
// on its database.
type TableRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     aqm.Logger
	config     *aqm.Config
}

func NewTableRepo(config *aqm.Config, logger aqm.Logger) *TableRepo {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &TableRepo{
		logger: logger,
		config: config,
	}
}

func (r *TableRepo) Start(ctx context.Context) error {
	connString := r.config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := r.config.GetStringOrDef("db.mongo.name", "appetite_seating")

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection("tables")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "restaurant_id", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create index: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: tables", connString, dbName)
	return nil
}

func (r *TableRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *TableRepo) GetDatabase() *mongo.Database {
	return r.db
}

func (r *TableRepo) Create(ctx context.Context, table *tables.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	if _, err := r.collection.InsertOne(ctx, table); err != nil {
		return fmt.Errorf("cannot create table: %w", err)
	}

	return nil
}

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	var table tables.Table
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &table, nil
}

func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*tables.Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"restaurant_id": restaurantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*tables.Table
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}

	return result, nil
}

func (r *TableRepo) Save(ctx context.Context, table *tables.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	filter := bson.M{"_id": table.ID}
	update := bson.M{"$set": table}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update table: %w", err)
	}

	if result.MatchedCount == 0 {
		return tables.ErrTableNotFound
	}

	return nil
}
