package commands

import (
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/seating"
	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

// Matches the restaurant in the service bootstrap seed.
const defaultDemoRestaurant = "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

func newClient(config *aqm.Config) *seating.HTTPClient {
	return seating.NewHTTPClient(config.GetStringOrDef("services.seating.url", "http://localhost:8080"))
}

func demoTarget(config *aqm.Config) (uuid.UUID, string, error) {
	raw := config.GetStringOrDef("demo.restaurant", defaultDemoRestaurant)
	restaurantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid demo restaurant %q: %w", raw, err)
	}

	date := config.GetStringOrDef("demo.date", time.Now().AddDate(0, 0, 1).Format(tables.DateLayout))
	if _, err := time.Parse(tables.DateLayout, date); err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid demo date %q: %w", date, err)
	}

	return restaurantID, date, nil
}
