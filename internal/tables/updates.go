package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/tablestatus"
)

// UpdateReservation applies changes and reconciles the ledger. When the
// committed tables no longer fit, they are released, the reservation is
// saved flagged for reassignment and a *ReconciliationFailure is returned
// along with it.
func (s *Service) UpdateReservation(ctx context.Context, id uuid.UUID, changes ReservationChanges) (*Reservation, error) {
	if errs := ValidateReservationChanges(ctx, changes); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, ", "))
	}

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := []string{bucketKey(res.RestaurantID, res.Date)}
	if changes.Date != nil {
		keys = append(keys, bucketKey(res.RestaurantID, *changes.Date))
	}
	unlock := s.locks.lock(keys...)
	o := &outbox{}
	defer func() {
		unlock()
		s.dispatch(ctx, o)
	}()

	res, err = s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyChanges(res, changes); err != nil {
		return nil, err
	}

	policy, err := s.policyRepo.Get(ctx, res.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("cannot load policy: %w", err)
	}
	tables, err := s.tableRepo.ListByRestaurant(ctx, res.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}

	window := s.windowFor(res, policy)
	rec, err := s.ledger.Reconcile(ctx, res, window, capacityIndex(tables))
	if err != nil {
		return nil, err
	}

	switch rec.Outcome {
	case ReconcileReleased:
		res.TableIDs = nil
		res.NeedsReassignment = false
	case ReconcileInvalidated:
		res.TableIDs = nil
		res.NeedsReassignment = true
		o.notify(pkg.EventReservationNeedsReassignment, res, window, rec.Failure.Reason)
	case ReconcileUnassigned:
		if res.releasesTables() {
			res.NeedsReassignment = false
		}
	}

	res.UpdatedBy = seatingEventSource
	res.BeforeUpdate()
	if err := s.reservationRepo.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("cannot save reservation: %w", err)
	}

	s.markReleased(ctx, rec.Released, o)

	if rec.Failure != nil {
		s.logger.Info("reservation needs reassignment", "reservation_id", res.ID.String(), "reason", rec.Failure.Reason)
		return res, rec.Failure
	}
	return res, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.setStatus(ctx, id, reservationstatus.Statuses.Cancelled)
}

func (s *Service) Seat(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.setStatus(ctx, id, reservationstatus.Statuses.Seated)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.setStatus(ctx, id, reservationstatus.Statuses.Completed)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.setStatus(ctx, id, reservationstatus.Statuses.NoShow)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status reservationstatus.Status) (*Reservation, error) {
	name := status.Code()
	return s.UpdateReservation(ctx, id, ReservationChanges{Status: &name})
}

// ReconcileTable re-validates every reservation holding tableID, typically
// after the table's capacity or status was edited. It returns the failures
// of the reservations that lost their tables.
func (s *Service) ReconcileTable(ctx context.Context, tableID uuid.UUID) ([]*ReconciliationFailure, error) {
	var failures []*ReconciliationFailure
	for _, a := range s.ledger.ForTable(tableID) {
		_, err := s.UpdateReservation(ctx, a.ReservationID, ReservationChanges{})
		var failure *ReconciliationFailure
		switch {
		case err == nil:
		case errors.As(err, &failure):
			failures = append(failures, failure)
		case errors.Is(err, ErrReservationNotFound):
			// Orphaned commitment.
			if _, rerr := s.ledger.Release(ctx, a.ReservationID); rerr != nil {
				return failures, rerr
			}
			o := &outbox{}
			s.markReleased(ctx, a, o)
			s.dispatch(ctx, o)
		default:
			return failures, err
		}
	}
	return failures, nil
}

// windowFor is the window the reservation needs under policy. Without a
// usable policy no window can match a commitment.
func (s *Service) windowFor(res *Reservation, policy *Policy) TimeWindow {
	minute, err := ParseClock(res.Time)
	if err != nil || policy == nil || len(policy.Validate()) > 0 {
		return TimeWindow{Date: res.Date, Start: -1, End: -1}
	}
	return NewWindow(res.Date, minute, policy.ServiceDurationMinutes, s.preRollMinutes())
}

func capacityIndex(tables []*Table) func(uuid.UUID) int {
	index := make(map[uuid.UUID]int, len(tables))
	for _, t := range tables {
		if t == nil || t.Status == tablestatus.Statuses.OutOfOrder.Code() {
			continue
		}
		index[t.ID] = t.Capacity
	}
	return func(id uuid.UUID) int {
		return index[id]
	}
}

func applyChanges(res *Reservation, changes ReservationChanges) error {
	if changes.Status != nil && *changes.Status != res.Status {
		if *changes.Status == reservationstatus.Statuses.Confirmed.Code() {
			return fmt.Errorf("%w: pending reservations are confirmed by approval", ErrInvalidTransition)
		}
		if err := res.TransitionTo(*changes.Status); err != nil {
			return err
		}
	}

	edits := changes.Date != nil || changes.Time != nil || changes.PartySize != nil
	if edits && res.releasesTables() {
		return fmt.Errorf("%w: %s reservation cannot be edited", ErrInvalidTransition, res.Status)
	}

	if changes.Date != nil {
		res.Date = *changes.Date
	}
	if changes.Time != nil {
		res.Time = *changes.Time
	}
	if changes.PartySize != nil {
		res.PartySize = *changes.PartySize
	}
	if changes.ContactName != nil {
		res.ContactName = *changes.ContactName
	}
	if changes.ContactInfo != nil {
		res.ContactInfo = *changes.ContactInfo
	}
	if changes.Notes != nil {
		res.Notes = *changes.Notes
	}
	return nil
}
