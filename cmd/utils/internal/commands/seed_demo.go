package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/seating"
	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/seeding"
	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

// Booker is the part of the seating service seed-demo drives.
type Booker interface {
	Book(ctx context.Context, req tables.BookingRequest) (*tables.Reservation, error)
}

// SeedDemo books a demo dinner service through the running seating service.
// Requests carry stable idempotency keys, so reruns replay instead of
// double-booking.
func SeedDemo(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Info("Starting demo seeding process...")

	restaurantID, date, err := demoTarget(config)
	if err != nil {
		return err
	}

	booked, skipped, err := bookDemo(ctx, newClient(config), seeding.DemoBookings(restaurantID, date), logger)
	if err != nil {
		return err
	}

	logger.Info("Demo reservations applied", "date", date, "booked", booked, "skipped", skipped)
	return nil
}

func bookDemo(ctx context.Context, booker Booker, requests []tables.BookingRequest, logger aqm.Logger) (int, int, error) {
	booked, skipped := 0, 0
	for _, req := range requests {
		res, err := booker.Book(ctx, req)
		switch {
		case err == nil:
			booked++
			logger.Info("Demo reservation booked", "reservation_id", res.ID.String(), "time", res.Time, "party_size", res.PartySize, "status", res.Status)
		case errors.Is(err, seating.ErrRejected):
			skipped++
			logger.Info("Demo reservation rejected", "time", req.Time, "party_size", req.PartySize, "error", err)
		default:
			return booked, skipped, fmt.Errorf("book demo reservation at %s: %w", req.Time, err)
		}
	}
	return booked, skipped, nil
}
