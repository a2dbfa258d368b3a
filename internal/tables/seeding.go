package tables

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/seed"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const seatingSeedApplication = "seating"

type bootstrapSeedDocument struct {
	Restaurants []restaurantSeed `json:"restaurants"`
}

type restaurantSeed struct {
	ID     string        `json:"id"`
	Policy PolicyRequest `json:"policy"`
	Tables []tableSeed   `json:"tables"`
}

type tableSeed struct {
	Number   int    `json:"number"`
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

func loadSeatingSeeds(seedFS embed.FS) ([]restaurantSeed, error) {
	seedBytes, err := seedFS.ReadFile("seed.json")
	if err != nil {
		return nil, fmt.Errorf("read seed.json: %w", err)
	}

	if len(seedBytes) == 0 {
		return nil, errors.New("seating seed file is empty")
	}

	var doc bootstrapSeedDocument
	if err := json.Unmarshal(seedBytes, &doc); err != nil {
		return nil, fmt.Errorf("decode seating seed file: %w", err)
	}

	if len(doc.Restaurants) == 0 {
		return nil, errors.New("seating seed file does not contain restaurants")
	}

	return doc.Restaurants, nil
}

// ApplySeatingSeeds ensures the bootstrap policies and floor plans exist.
func ApplySeatingSeeds(ctx context.Context, repos Repos, seedFS embed.FS, logger aqm.Logger) error {
	if repos.TableRepo == nil || repos.PolicyRepo == nil {
		return errors.New("table and policy repositories are required")
	}

	docs, err := loadSeatingSeeds(seedFS)
	if err != nil {
		return err
	}

	defs, err := buildSeatingSeedDefinitions(docs, repos, logger)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		logger.Info("No seating seeds to apply")
		return nil
	}

	tracker, err := trackerFromRepo(repos.TableRepo)
	if err != nil {
		return err
	}

	logger.Info("Applying seating seeds")
	if err := seed.Apply(ctx, tracker, defs, seatingSeedApplication); err != nil {
		return err
	}
	logger.Info("Seating seeds applied successfully")
	return nil
}

func trackerFromRepo(repo TableRepo) (seed.Tracker, error) {
	provider, ok := repo.(mongoDatabaseProvider)
	if !ok {
		return nil, errors.New("table repository does not expose MongoDB access for seeding")
	}
	db := provider.GetDatabase()
	if db == nil {
		return nil, errors.New("table repository database is not initialized")
	}
	return seed.NewMongoTracker(db), nil
}

type mongoDatabaseProvider interface {
	GetDatabase() *mongo.Database
}

func buildSeatingSeedDefinitions(raw []restaurantSeed, repos Repos, logger aqm.Logger) ([]seed.Seed, error) {
	var defs []seed.Seed

	for _, rs := range raw {
		restaurantID, err := uuid.Parse(strings.TrimSpace(rs.ID))
		if err != nil {
			return nil, fmt.Errorf("invalid seed restaurant id %q: %w", rs.ID, err)
		}

		policy := rs.Policy
		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-01-20_policy_%s", seedIdentifier(rs.ID)),
			Description: fmt.Sprintf("Ensure policy for restaurant %s exists", rs.ID),
			Run: func(ctx context.Context) error {
				return ensurePolicy(ctx, repos.PolicyRepo, restaurantID, policy, logger)
			},
		})

		for _, ts := range rs.Tables {
			seedData := ts
			if seedData.Number <= 0 || seedData.Capacity <= 0 {
				logger.Info("Skipping seed table without number or capacity", "restaurant_id", rs.ID)
				continue
			}

			logger.Info("Including seed table", "restaurant_id", rs.ID, "number", seedData.Number, "capacity", seedData.Capacity)

			defs = append(defs, seed.Seed{
				ID:          fmt.Sprintf("2025-01-20_table_%s_%d", seedIdentifier(rs.ID), seedData.Number),
				Description: fmt.Sprintf("Ensure table %d exists for restaurant %s", seedData.Number, rs.ID),
				Run: func(ctx context.Context) error {
					return seedData.ensureTable(ctx, repos.TableRepo, restaurantID, logger)
				},
			})
		}
	}

	return defs, nil
}

func seedIdentifier(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}

	var builder strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
		} else if r == '-' || r == '_' || r == ' ' {
			builder.WriteRune('_')
		}
	}

	result := builder.String()
	if result == "" {
		return "seed"
	}
	return result
}

func ensurePolicy(ctx context.Context, repo PolicyRepo, restaurantID uuid.UUID, req PolicyRequest, logger aqm.Logger) error {
	existing, err := repo.Get(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("get existing policy: %w", err)
	}
	if existing != nil {
		logger.Info("Seed policy already exists", "restaurant_id", restaurantID.String())
		return nil
	}

	policy := &Policy{
		RestaurantID:           restaurantID,
		OpeningHours:           req.OpeningHours,
		MinPartySize:           req.MinPartySize,
		MaxPartySize:           req.MaxPartySize,
		MaxReservationsPerSlot: req.MaxReservationsPerSlot,
		ServiceDurationMinutes: req.ServiceDurationMinutes,
		LargeGroupThreshold:    req.LargeGroupThreshold,
	}
	if errs := policy.Validate(); len(errs) > 0 {
		return fmt.Errorf("seed policy for %s is invalid: %s", restaurantID, strings.Join(errs, ", "))
	}
	policy.BeforeCreate()

	if err := repo.Save(ctx, policy); err != nil {
		return fmt.Errorf("save seed policy %s: %w", restaurantID, err)
	}

	logger.Info("Seed policy created", "restaurant_id", restaurantID.String())
	return nil
}

func (s tableSeed) ensureTable(ctx context.Context, repo TableRepo, restaurantID uuid.UUID, logger aqm.Logger) error {
	existing, err := repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("list existing tables: %w", err)
	}

	for _, t := range existing {
		if t.Number == s.Number {
			logger.Info("Seed table already exists", "restaurant_id", restaurantID.String(), "number", s.Number)
			return nil
		}
	}

	table := NewTable()
	table.RestaurantID = restaurantID
	table.Number = s.Number
	table.Label = s.Label
	table.Capacity = s.Capacity
	table.CreatedBy = "seed:bootstrap"
	table.UpdatedBy = "seed:bootstrap"
	table.BeforeCreate()

	if err := repo.Create(ctx, table); err != nil {
		return fmt.Errorf("create seed table %d: %w", s.Number, err)
	}

	logger.Info("Seed table created", "restaurant_id", restaurantID.String(), "number", s.Number, "id", table.ID.String())
	return nil
}

// SeedingFunc returns an aqm lifecycle OnStart-compatible function which
// starts applying seating seeds in the background.
func SeedingFunc(seedCtx context.Context, repos Repos, seedFS embed.FS, logger aqm.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting seating seeding in background")
		go func() {
			if err := ApplySeatingSeeds(seedCtx, repos, seedFS, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Seating seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Seating seeding completed successfully")
			}
		}()
		return nil
	}
}

// StopFunc returns an aqm lifecycle OnStop-compatible function which calls
// the provided cancel function to stop any background seeding goroutine.
func StopFunc(cancelFunc context.CancelFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if cancelFunc != nil {
			cancelFunc()
		}
		return nil
	}
}
