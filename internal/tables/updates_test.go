package tables

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg"
)

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func TestServiceCancelReleasesTables(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()

	res := f.book(t, "14:00", 4)
	tableID := res.TableIDs[0]
	if got := f.tableStatus(t, tableID); got != "reserved" {
		t.Fatalf("table status after Book() = %s, want reserved", got)
	}

	cancelled, err := f.svc.Cancel(ctx, res.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != "cancelled" || len(cancelled.TableIDs) != 0 {
		t.Errorf("Cancel() = %s with %d tables, want cancelled with none", cancelled.Status, len(cancelled.TableIDs))
	}
	if f.svc.Ledger().IsCommitted(tableID) || f.assignments.Count() != 0 {
		t.Error("Cancel() left the assignment in place")
	}
	if got := f.tableStatus(t, tableID); got != "available" {
		t.Errorf("table status after Cancel() = %s, want available", got)
	}

	av, err := f.svc.CheckAvailability(ctx, availabilityAt(testDate, "15:30", 4))
	if err != nil || !av.Available {
		t.Errorf("CheckAvailability() after Cancel() = (%+v, %v), want available", av, err)
	}

	f.svc.Wait()
	if msgs := f.publisher.Messages(pkg.TableStatusTopic); len(msgs) != 2 {
		t.Errorf("table status events = %d, want 2", len(msgs))
	}
}

func TestServiceReleaseKeepsSharedTableReserved(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()

	lunch := f.book(t, "12:00", 2)
	f.book(t, "18:00", 2)
	tableID := lunch.TableIDs[0]

	if _, err := f.svc.Cancel(ctx, lunch.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got := f.tableStatus(t, tableID); got != "reserved" {
		t.Errorf("table status = %s, want reserved while the dinner booking holds it", got)
	}
}

func TestServiceLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		steps      []string
		wantStatus string
		wantErr    error
		wantHeld   bool
	}{
		{name: "seatAndComplete", steps: []string{"seat", "complete"}, wantStatus: "completed"},
		{name: "seatedKeepsTables", steps: []string{"seat"}, wantStatus: "seated", wantHeld: true},
		{name: "noShow", steps: []string{"no-show"}, wantStatus: "no_show"},
		{name: "completeBeforeSeating", steps: []string{"complete"}, wantErr: ErrInvalidTransition},
		{name: "cancelAfterComplete", steps: []string{"seat", "complete", "cancel"}, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newTestPolicy(), 4)
			ctx := context.Background()
			res := f.book(t, "19:00", 2)

			var (
				got *Reservation
				err error
			)
			for _, step := range tt.steps {
				switch step {
				case "seat":
					got, err = f.svc.Seat(ctx, res.ID)
				case "complete":
					got, err = f.svc.Complete(ctx, res.ID)
				case "no-show":
					got, err = f.svc.MarkNoShow(ctx, res.ID)
				case "cancel":
					got, err = f.svc.Cancel(ctx, res.ID)
				}
				if err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if held := f.svc.Ledger().ForReservation(res.ID) != nil; held != tt.wantHeld {
				t.Errorf("tables held = %v, want %v", held, tt.wantHeld)
			}
		})
	}
}

func TestServiceUpdateReservation(t *testing.T) {
	tests := []struct {
		name             string
		changes          ReservationChanges
		wantFailure      bool
		wantReassignment bool
		wantHeld         bool
		wantErr          error
	}{
		{name: "contactOnly", changes: ReservationChanges{ContactName: strPtr("Grace")}, wantHeld: true},
		{name: "smallerParty", changes: ReservationChanges{PartySize: intPtr(2)}, wantHeld: true},
		{name: "largerParty", changes: ReservationChanges{PartySize: intPtr(6)}, wantFailure: true, wantReassignment: true},
		{name: "newTime", changes: ReservationChanges{Time: strPtr("20:00")}, wantFailure: true, wantReassignment: true},
		{name: "newDate", changes: ReservationChanges{Date: strPtr("2025-06-03")}, wantFailure: true, wantReassignment: true},
		{name: "confirmByPatch", changes: ReservationChanges{Status: strPtr("confirmed")}, wantHeld: true},
		{name: "backToPending", changes: ReservationChanges{Status: strPtr("pending")}, wantErr: ErrInvalidTransition},
		{name: "unknownStatus", changes: ReservationChanges{Status: strPtr("lost")}, wantErr: ErrInvalidRequest},
		{name: "badTime", changes: ReservationChanges{Time: strPtr("25:00")}, wantErr: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newTestPolicy(), 4)
			ctx := context.Background()
			res := f.book(t, "19:00", 4)

			got, err := f.svc.UpdateReservation(ctx, res.ID, tt.changes)
			f.svc.Wait()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateReservation() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			var failure *ReconciliationFailure
			if tt.wantFailure {
				if !errors.As(err, &failure) {
					t.Fatalf("UpdateReservation() error = %v, want *ReconciliationFailure", err)
				}
				if failure.ReservationID != res.ID {
					t.Errorf("failure reservation = %s, want %s", failure.ReservationID, res.ID)
				}
				if !containsString(f.notifier.Types(), pkg.EventReservationNeedsReassignment) {
					t.Errorf("notifications = %v, want %s", f.notifier.Types(), pkg.EventReservationNeedsReassignment)
				}
			} else if err != nil {
				t.Fatalf("UpdateReservation() error = %v", err)
			}

			if got == nil {
				t.Fatal("UpdateReservation() returned no reservation")
			}
			if got.NeedsReassignment != tt.wantReassignment {
				t.Errorf("needs_reassignment = %v, want %v", got.NeedsReassignment, tt.wantReassignment)
			}
			held := f.svc.Ledger().ForReservation(res.ID) != nil
			if held != tt.wantHeld {
				t.Errorf("tables held = %v, want %v", held, tt.wantHeld)
			}
			if held != (len(got.TableIDs) > 0) {
				t.Errorf("table_ids %v disagree with the ledger", got.TableIDs)
			}

			stored, _ := f.reservations.Get(ctx, res.ID)
			if stored.NeedsReassignment != got.NeedsReassignment {
				t.Error("UpdateReservation() did not persist the reservation")
			}
		})
	}
}

func TestServiceUpdateRejectsEditsOnTerminal(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()
	res := f.book(t, "19:00", 2)

	if _, err := f.svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := f.svc.UpdateReservation(ctx, res.ID, ReservationChanges{Time: strPtr("20:00")}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("UpdateReservation() error = %v, want %v", err, ErrInvalidTransition)
	}
	if _, err := f.svc.UpdateReservation(ctx, uuid.New(), ReservationChanges{}); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("UpdateReservation() unknown id error = %v, want %v", err, ErrReservationNotFound)
	}
}

func TestServiceReassign(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4, 6)
	ctx := context.Background()

	res := f.book(t, "19:00", 4)
	if _, err := f.svc.Reassign(ctx, res.ID); !errors.Is(err, ErrAlreadyCommitted) {
		t.Fatalf("Reassign() with tables error = %v, want %v", err, ErrAlreadyCommitted)
	}

	_, err := f.svc.UpdateReservation(ctx, res.ID, ReservationChanges{PartySize: intPtr(6)})
	var failure *ReconciliationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("UpdateReservation() error = %v, want *ReconciliationFailure", err)
	}

	got, err := f.svc.Reassign(ctx, res.ID)
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if got.Status != "confirmed" || got.NeedsReassignment || len(got.TableIDs) != 1 {
		t.Errorf("Reassign() = %s needs %v tables %d", got.Status, got.NeedsReassignment, len(got.TableIDs))
	}
	if got.TableIDs[0] != f.tableList[1].ID {
		t.Errorf("Reassign() picked %s, want the table of 6", got.TableIDs[0])
	}

	pending := NewReservation()
	pending.RestaurantID = testRestaurantID
	pending.Date = testDate
	pending.Time = "13:00"
	pending.PartySize = 2
	if err := f.reservations.Create(ctx, pending); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Reassign(ctx, pending.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reassign() pending error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestServiceReconcileTable(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()

	lunch := f.book(t, "12:00", 4)
	dinner := f.book(t, "19:00", 2)
	table := f.tableList[0]

	shrunk, _ := f.tables.Get(ctx, table.ID)
	shrunk.Capacity = 2
	if err := f.tables.Save(ctx, shrunk); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	failures, err := f.svc.ReconcileTable(ctx, table.ID)
	if err != nil {
		t.Fatalf("ReconcileTable() error = %v", err)
	}
	if len(failures) != 1 || failures[0].ReservationID != lunch.ID {
		t.Fatalf("ReconcileTable() failures = %v, want the lunch booking", failures)
	}

	if f.svc.Ledger().ForReservation(dinner.ID) == nil {
		t.Error("dinner booking still fits and should keep its table")
	}
	stored, _ := f.reservations.Get(ctx, lunch.ID)
	if !stored.NeedsReassignment {
		t.Error("lunch booking should need reassignment")
	}
}

func TestServiceReconcileTableOutOfOrder(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()

	res := f.book(t, "19:00", 2)
	table, _ := f.tables.Get(ctx, f.tableList[0].ID)
	table.Status = "out_of_order"
	if err := f.tables.Save(ctx, table); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	failures, err := f.svc.ReconcileTable(ctx, table.ID)
	if err != nil {
		t.Fatalf("ReconcileTable() error = %v", err)
	}
	if len(failures) != 1 || failures[0].ReservationID != res.ID {
		t.Errorf("ReconcileTable() failures = %v, want one for %s", failures, res.ID)
	}
	if got := f.tableStatus(t, table.ID); got != "out_of_order" {
		t.Errorf("table status = %s, want out_of_order left untouched", got)
	}
}

func TestServiceReconcileTableOrphan(t *testing.T) {
	f := newFixture(t, newTestPolicy(), 4)
	ctx := context.Background()
	table := f.tableList[0]

	window := NewWindow(testDate, 19*60, 120, 15)
	orphan := uuid.New()
	tables := []AssignedTable{{TableID: table.ID, Number: table.Number, Capacity: table.Capacity}}
	if _, err := f.svc.Ledger().Commit(ctx, testRestaurantID, orphan, tables, window); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	failures, err := f.svc.ReconcileTable(ctx, table.ID)
	if err != nil || len(failures) != 0 {
		t.Fatalf("ReconcileTable() = (%v, %v), want no failures", failures, err)
	}
	if f.svc.Ledger().IsCommitted(table.ID) {
		t.Error("ReconcileTable() should release commitments of missing reservations")
	}
}
