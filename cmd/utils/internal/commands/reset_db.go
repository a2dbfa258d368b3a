package commands

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResetDB drops the seating database - USE WITH CAUTION
// It refuses while the seating service answers, since its ledger would keep
// commitments for reservations that no longer exist.
func ResetDB(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	if newClient(config).Reachable(ctx) {
		return fmt.Errorf("seating service is running; stop it before resetting the database")
	}

	dbName := config.GetStringOrDef("db.mongo.name", "appetite_seating")
	logger.Infof("DANGER: This will drop the %s database!", dbName)
	logger.Infof("This action cannot be undone!")

	mongoURL := config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB")

	result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		return fmt.Errorf("drop database %s: %w", dbName, result.Err())
	}

	logger.Info("Database dropped", "database", dbName)
	return nil
}
