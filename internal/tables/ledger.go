package tables

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// AssignedTable is a table bound to an assignment, with the capacity it had
// when committed.
type AssignedTable struct {
	TableID  uuid.UUID `json:"table_id" bson:"table_id"`
	Number   int       `json:"number" bson:"number"`
	Capacity int       `json:"capacity" bson:"capacity"`
}

// Assignment binds one reservation to one or more tables for one window.
type Assignment struct {
	ID            uuid.UUID       `json:"id" bson:"_id"`
	RestaurantID  uuid.UUID       `json:"restaurant_id" bson:"restaurant_id"`
	ReservationID uuid.UUID       `json:"reservation_id" bson:"reservation_id"`
	Tables        []AssignedTable `json:"tables" bson:"tables"`
	Window        TimeWindow      `json:"window" bson:"window"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
}

func (a *Assignment) GetID() uuid.UUID {
	return a.ID
}

func (a *Assignment) ResourceType() string {
	return "assignment"
}

func (a *Assignment) TableIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.Tables))
	for _, t := range a.Tables {
		ids = append(ids, t.TableID)
	}
	return ids
}

func (a *Assignment) clone() *Assignment {
	c := *a
	c.Tables = append([]AssignedTable(nil), a.Tables...)
	return &c
}

func (a *Assignment) sameAs(tables []AssignedTable, window TimeWindow) bool {
	if a.Window != window || len(a.Tables) != len(tables) {
		return false
	}
	have := make(map[uuid.UUID]struct{}, len(a.Tables))
	for _, t := range a.Tables {
		have[t.TableID] = struct{}{}
	}
	for _, t := range tables {
		if _, ok := have[t.TableID]; !ok {
			return false
		}
	}
	return true
}

// ReconcileOutcome is the result of re-validating an assignment.
type ReconcileOutcome string

const (
	ReconcileUnassigned  ReconcileOutcome = "unassigned"
	ReconcileValid       ReconcileOutcome = "valid"
	ReconcileReleased    ReconcileOutcome = "released"
	ReconcileInvalidated ReconcileOutcome = "invalidated"
)

type Reconciliation struct {
	Outcome  ReconcileOutcome
	Released *Assignment
	Failure  *ReconciliationFailure
}

// Ledger is the authoritative record of table commitments. No table is ever
// held by two assignments whose windows intersect.
type Ledger struct {
	mu            sync.RWMutex
	byReservation map[uuid.UUID]*Assignment
	byTable       map[uuid.UUID][]*Assignment

	store  AssignmentRepo
	logger aqm.Logger
}

// NewLedger creates a ledger writing through to store. A nil store keeps
// assignments in memory only.
func NewLedger(store AssignmentRepo, logger aqm.Logger) *Ledger {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Ledger{
		byReservation: make(map[uuid.UUID]*Assignment),
		byTable:       make(map[uuid.UUID][]*Assignment),
		store:         store,
		logger:        logger,
	}
}

// Warm loads persisted assignments from fromDate onward.
func (l *Ledger) Warm(ctx context.Context, fromDate string) error {
	if l.store == nil {
		return nil
	}

	assignments, err := l.store.ListFromDate(ctx, fromDate)
	if err != nil {
		return fmt.Errorf("cannot load assignments: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byReservation = make(map[uuid.UUID]*Assignment, len(assignments))
	l.byTable = make(map[uuid.UUID][]*Assignment)

	skipped := 0
	for _, a := range assignments {
		if a == nil {
			continue
		}
		if l.conflictLocked(a.Tables, a.Window, a.ReservationID) != nil {
			skipped++
			l.logger.Error("persisted assignment conflicts with another, skipping",
				"reservation_id", a.ReservationID.String(), "window", a.Window.String())
			continue
		}
		l.insertLocked(a)
	}

	l.logger.Info("assignment ledger warmed", "assignments", len(l.byReservation), "skipped", skipped, "from", fromDate)
	return nil
}

// IsFree reports whether no committed assignment holds tableID during a
// window intersecting window.
func (l *Ledger) IsFree(tableID uuid.UUID, window TimeWindow) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, a := range l.byTable[tableID] {
		if a.Window.Intersects(window) {
			return false
		}
	}
	return true
}

// Commit binds tables to reservationID for window. Either every table is
// free and the assignment is recorded, or nothing changes. Committing the
// same tables and window again returns the existing assignment.
func (l *Ledger) Commit(ctx context.Context, restaurantID, reservationID uuid.UUID, tables []AssignedTable, window TimeWindow) (*Assignment, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables to commit", ErrInvalidRequest)
	}
	seen := make(map[uuid.UUID]struct{}, len(tables))
	for _, t := range tables {
		if _, dup := seen[t.TableID]; dup {
			return nil, fmt.Errorf("%w: table %d listed twice", ErrInvalidRequest, t.Number)
		}
		seen[t.TableID] = struct{}{}
	}

	l.mu.Lock()
	if existing, ok := l.byReservation[reservationID]; ok {
		l.mu.Unlock()
		if existing.sameAs(tables, window) {
			return existing.clone(), nil
		}
		return nil, ErrAlreadyCommitted
	}

	if err := l.conflictLocked(tables, window, reservationID); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	a := &Assignment{
		ID:            aqm.GenerateNewID(),
		RestaurantID:  restaurantID,
		ReservationID: reservationID,
		Tables:        append([]AssignedTable(nil), tables...),
		Window:        window,
		CreatedAt:     time.Now(),
	}
	l.insertLocked(a)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Create(ctx, a); err != nil {
			l.mu.Lock()
			l.removeLocked(a)
			l.mu.Unlock()
			if errors.Is(err, ErrAssignmentConflict) {
				return nil, err
			}
			return nil, fmt.Errorf("cannot persist assignment: %w", err)
		}
	}

	l.logger.Info("tables committed", "reservation_id", reservationID.String(), "tables", len(tables), "window", window.String())
	return a.clone(), nil
}

// Release removes the assignment of reservationID and returns it, or nil
// when the reservation holds no tables.
func (l *Ledger) Release(ctx context.Context, reservationID uuid.UUID) (*Assignment, error) {
	l.mu.RLock()
	a, ok := l.byReservation[reservationID]
	l.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if l.store != nil {
		if err := l.store.DeleteByReservation(ctx, reservationID); err != nil {
			return nil, fmt.Errorf("cannot delete assignment: %w", err)
		}
	}

	l.mu.Lock()
	l.removeLocked(a)
	l.mu.Unlock()

	l.logger.Info("tables released", "reservation_id", reservationID.String(), "window", a.Window.String())
	return a.clone(), nil
}

// Reconcile re-validates the assignment of res against its current window
// and party size. capacityOf reports the present capacity of a table, zero
// for tables that are gone or out of order. An assignment stays only while
// its window equals window and its capacity covers the party; otherwise it
// is released and the outcome carries a failure.
func (l *Ledger) Reconcile(ctx context.Context, res *Reservation, window TimeWindow, capacityOf func(uuid.UUID) int) (Reconciliation, error) {
	current := l.ForReservation(res.ID)
	if current == nil {
		return Reconciliation{Outcome: ReconcileUnassigned}, nil
	}

	if res.releasesTables() {
		released, err := l.Release(ctx, res.ID)
		if err != nil {
			return Reconciliation{}, err
		}
		return Reconciliation{Outcome: ReconcileReleased, Released: released}, nil
	}

	var reason string
	if current.Window != window {
		reason = fmt.Sprintf("window changed from %s to %s", current.Window, window)
	} else {
		seats := 0
		for _, t := range current.Tables {
			seats += capacityOf(t.TableID)
		}
		if seats < res.PartySize {
			reason = fmt.Sprintf("assigned capacity %d below party size %d", seats, res.PartySize)
		}
	}

	if reason == "" {
		return Reconciliation{Outcome: ReconcileValid}, nil
	}

	released, err := l.Release(ctx, res.ID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconciliation{
		Outcome:  ReconcileInvalidated,
		Released: released,
		Failure:  &ReconciliationFailure{ReservationID: res.ID, Reason: reason},
	}, nil
}

func (l *Ledger) ForReservation(reservationID uuid.UUID) *Assignment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.byReservation[reservationID]
	if !ok {
		return nil
	}
	return a.clone()
}

func (l *Ledger) ForTable(tableID uuid.UUID) []*Assignment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Assignment, 0, len(l.byTable[tableID]))
	for _, a := range l.byTable[tableID] {
		result = append(result, a.clone())
	}
	sortAssignments(result)
	return result
}

// ForDate lists the assignments of a restaurant on date, ordered by window
// start.
func (l *Ledger) ForDate(restaurantID uuid.UUID, date string) []*Assignment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*Assignment
	for _, a := range l.byReservation {
		if a.RestaurantID == restaurantID && a.Window.Date == date {
			result = append(result, a.clone())
		}
	}
	sortAssignments(result)
	return result
}

// IsCommitted reports whether any assignment holds tableID.
func (l *Ledger) IsCommitted(tableID uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byTable[tableID]) > 0
}

func (l *Ledger) conflictLocked(tables []AssignedTable, window TimeWindow, reservationID uuid.UUID) error {
	for _, t := range tables {
		for _, a := range l.byTable[t.TableID] {
			if a.ReservationID == reservationID {
				continue
			}
			if a.Window.Intersects(window) {
				return fmt.Errorf("%w: table %d held by reservation %s during %s",
					ErrAssignmentConflict, t.Number, a.ReservationID, a.Window)
			}
		}
	}
	return nil
}

func (l *Ledger) insertLocked(a *Assignment) {
	l.byReservation[a.ReservationID] = a
	for _, t := range a.Tables {
		l.byTable[t.TableID] = append(l.byTable[t.TableID], a)
	}
}

func (l *Ledger) removeLocked(a *Assignment) {
	if current, ok := l.byReservation[a.ReservationID]; ok && current == a {
		delete(l.byReservation, a.ReservationID)
	}
	for _, t := range a.Tables {
		held := l.byTable[t.TableID]
		kept := held[:0]
		for _, h := range held {
			if h != a {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(l.byTable, t.TableID)
		} else {
			l.byTable[t.TableID] = kept
		}
	}
}

func sortAssignments(list []*Assignment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Window.Date != list[j].Window.Date {
			return list[i].Window.Date < list[j].Window.Date
		}
		if list[i].Window.Start != list[j].Window.Start {
			return list[i].Window.Start < list[j].Window.Start
		}
		return list[i].ReservationID.String() < list[j].ReservationID.String()
	})
}
