package tables

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/tablestatus"
)

const seatingEventSource = "seating-service"

const (
	defaultPreRoll       = 15 * time.Minute
	defaultSolverTimeout = 50 * time.Millisecond
	defaultSlotInterval  = 30 * time.Minute
)

type EngineConfig struct {
	PreRoll       time.Duration
	SolverTimeout time.Duration
	SlotInterval  time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PreRoll:       defaultPreRoll,
		SolverTimeout: defaultSolverTimeout,
		SlotInterval:  defaultSlotInterval,
	}
}

// EngineConfigFrom reads engine.preroll, engine.solver.timeout and
// engine.slot. Values that do not parse keep their defaults.
func EngineConfigFrom(config *aqm.Config, logger aqm.Logger) EngineConfig {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	cfg := DefaultEngineConfig()
	if config == nil {
		return cfg
	}

	read := func(key string, def time.Duration, allowZero bool) time.Duration {
		raw, ok := config.GetString(key)
		if !ok || raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 || (d == 0 && !allowZero) {
			logger.Error("invalid engine duration, using default", "key", key, "value", raw, "default", def.String())
			return def
		}
		return d
	}

	cfg.PreRoll = read("engine.preroll", defaultPreRoll, true)
	cfg.SolverTimeout = read("engine.solver.timeout", defaultSolverTimeout, false)
	cfg.SlotInterval = read("engine.slot", defaultSlotInterval, false)
	return cfg
}

type ServiceDeps struct {
	Repos     Repos
	Ledger    *Ledger
	Notifier  Notifier
	Publisher events.Publisher
}

// Service is the availability and booking facade over the ledger, the
// solver and the stores.
type Service struct {
	tableRepo       TableRepo
	reservationRepo ReservationRepo
	policyRepo      PolicyRepo

	ledger    *Ledger
	solver    *Solver
	locks     *bucketLocks
	notifier  Notifier
	publisher events.Publisher
	cfg       EngineConfig
	logger    aqm.Logger

	wg sync.WaitGroup
}

func NewService(deps ServiceDeps, cfg EngineConfig, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	ledger := deps.Ledger
	if ledger == nil {
		ledger = NewLedger(deps.Repos.AssignmentRepo, logger)
	}
	if cfg.SlotInterval <= 0 {
		cfg.SlotInterval = defaultSlotInterval
	}
	return &Service{
		tableRepo:       deps.Repos.TableRepo,
		reservationRepo: deps.Repos.ReservationRepo,
		policyRepo:      deps.Repos.PolicyRepo,
		ledger:          ledger,
		solver:          NewSolver(cfg.SolverTimeout, logger),
		locks:           newBucketLocks(),
		notifier:        deps.Notifier,
		publisher:       deps.Publisher,
		cfg:             cfg,
		logger:          logger,
	}
}

func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Start warms the ledger from today's date.
func (s *Service) Start(ctx context.Context) error {
	return s.ledger.Warm(ctx, time.Now().Format(DateLayout))
}

// Stop waits for pending notifications or until ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until dispatched side effects have run.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) preRollMinutes() int {
	return int(s.cfg.PreRoll / time.Minute)
}

func (s *Service) slotMinutes() int {
	return int(s.cfg.SlotInterval / time.Minute)
}

// outbox collects side effects produced under a bucket lock. They are sent
// after the lock is released.
type outbox struct {
	notes  []Notification
	tables []pkg.TableStatusEvent
}

func (o *outbox) notify(kind string, res *Reservation, window TimeWindow, reason string) {
	o.notes = append(o.notes, Notification{
		Type:          kind,
		ReservationID: res.ID,
		RestaurantID:  res.RestaurantID,
		PartySize:     res.PartySize,
		Window:        window,
		Reason:        reason,
	})
}

func (s *Service) dispatch(ctx context.Context, o *outbox) {
	if o == nil || (len(o.notes) == 0 && len(o.tables) == 0) {
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.notifier != nil {
			for _, n := range o.notes {
				if err := s.notifier.Notify(ctx, n); err != nil {
					s.logger.Error("cannot send notification", "type", n.Type, "reservation_id", n.ReservationID.String(), "error", err)
				}
			}
		}

		if s.publisher != nil {
			for _, evt := range o.tables {
				payload, err := json.Marshal(evt)
				if err != nil {
					s.logger.Error("cannot encode table status event", "error", err)
					continue
				}
				if err := s.publisher.Publish(ctx, pkg.TableStatusTopic, payload); err != nil {
					s.logger.Error("cannot publish table status event", "table_id", evt.TableID, "error", err)
				}
			}
		}
	}()
}

// markReserved flips committed tables from available to reserved.
func (s *Service) markReserved(ctx context.Context, a *Assignment, o *outbox) {
	if a == nil {
		return
	}
	for _, id := range a.TableIDs() {
		s.setTableStatus(ctx, id, tablestatus.Statuses.Available, tablestatus.Statuses.Reserved, a.ReservationID, "assignment.committed", o)
	}
}

// markReleased flips released tables back to available unless another
// assignment still holds them.
func (s *Service) markReleased(ctx context.Context, a *Assignment, o *outbox) {
	if a == nil {
		return
	}
	for _, id := range a.TableIDs() {
		if s.ledger.IsCommitted(id) {
			continue
		}
		s.setTableStatus(ctx, id, tablestatus.Statuses.Reserved, tablestatus.Statuses.Available, a.ReservationID, "assignment.released", o)
	}
}

func (s *Service) setTableStatus(ctx context.Context, tableID uuid.UUID, from, to tablestatus.Status, reservationID uuid.UUID, reason string, o *outbox) {
	table, err := s.tableRepo.Get(ctx, tableID)
	if err != nil || table == nil {
		s.logger.Error("cannot load table for status change", "table_id", tableID.String(), "error", err)
		return
	}
	if table.Status != from.Code() {
		return
	}

	table.Status = to.Code()
	table.UpdatedBy = seatingEventSource
	table.BeforeUpdate()
	if err := s.tableRepo.Save(ctx, table); err != nil {
		s.logger.Error("cannot save table status", "table_id", tableID.String(), "error", err)
		return
	}

	o.tables = append(o.tables, pkg.TableStatusEvent{
		EventType:      pkg.EventTableStatusChanged,
		TableID:        table.ID.String(),
		RestaurantID:   table.RestaurantID.String(),
		Status:         to.Code(),
		PreviousStatus: from.Code(),
		ReservationID:  reservationID.String(),
		Reason:         reason,
		Source:         seatingEventSource,
		OccurredAt:     time.Now().UTC(),
	})
}
