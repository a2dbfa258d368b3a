package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/seating"
	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/seeding"
	"github.com/appetiteclub/appetite/services/seating/internal/mongo"
	"github.com/appetiteclub/appetite/services/seating/internal/tables"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
)

// Releaser is the part of the seating service clear-demo drives.
type Releaser interface {
	List(ctx context.Context, restaurantID uuid.UUID, date string) ([]*tables.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) (*tables.Reservation, error)
	Complete(ctx context.Context, id uuid.UUID) (*tables.Reservation, error)
}

// ClearDemo has the running service release the demo reservations' tables,
// then deletes the released documents.
func ClearDemo(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Info("Starting demo data cleanup...")

	restaurantID, date, err := demoTarget(config)
	if err != nil {
		return err
	}

	ids, err := releaseDemo(ctx, newClient(config), restaurantID, date, logger)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.Info("No demo reservations found", "date", date)
		return nil
	}

	tableRepo := mongo.NewTableRepo(config, logger)
	if err := tableRepo.Start(ctx); err != nil {
		return fmt.Errorf("connect to seating database: %w", err)
	}
	defer tableRepo.Stop(ctx)
	db := tableRepo.GetDatabase()

	// Released reservations hold nothing in the service ledger. Assignments
	// older than its warm-up window are only in the store.
	assignments := mongo.NewAssignmentRepo(db)
	filterIDs := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if err := assignments.DeleteByReservation(ctx, id); err != nil {
			return fmt.Errorf("delete demo assignment %s: %w", id, err)
		}
		filterIDs = append(filterIDs, id)
	}

	result, err := db.Collection("reservations").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": filterIDs}})
	if err != nil {
		return fmt.Errorf("delete demo reservations: %w", err)
	}
	logger.Info("Deleted demo reservations", "count", result.DeletedCount)

	return nil
}

// releaseDemo ends every demo reservation through the service and returns
// the ids that no longer hold tables. Seated parties are completed, the
// rest cancelled.
func releaseDemo(ctx context.Context, svc Releaser, restaurantID uuid.UUID, date string, logger aqm.Logger) ([]uuid.UUID, error) {
	list, err := svc.List(ctx, restaurantID, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	var ids []uuid.UUID
	for _, res := range list {
		if !seeding.IsDemo(res) {
			continue
		}

		switch res.Status {
		case reservationstatus.Statuses.Seated.Code():
			_, err = svc.Complete(ctx, res.ID)
		case reservationstatus.Statuses.Pending.Code(), reservationstatus.Statuses.Confirmed.Code():
			_, err = svc.Cancel(ctx, res.ID)
		default:
			err = nil
		}

		if err != nil {
			if errors.Is(err, seating.ErrRejected) {
				logger.Info("Demo reservation left in place", "reservation_id", res.ID.String(), "error", err)
				continue
			}
			return ids, fmt.Errorf("release demo reservation %s: %w", res.ID, err)
		}
		ids = append(ids, res.ID)
	}
	return ids, nil
}
