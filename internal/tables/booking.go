package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
)

const bookAttempts = 2

// Book creates a reservation if the request is available. Large groups are
// stored pending without tables; everyone else is confirmed with a committed
// combination. A lost race for the tables is retried once with a fresh
// evaluation. A repeated idempotency key returns the reservation it created.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Reservation, error) {
	if errs := ValidateBookingRequest(ctx, req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, ", "))
	}

	var (
		err    error
		window TimeWindow
	)
	for attempt := 1; attempt <= bookAttempts; attempt++ {
		var res *Reservation
		res, window, err = s.book(ctx, req)
		if !errors.Is(err, ErrAssignmentConflict) {
			return res, err
		}
		s.logger.Info("booking lost a table race", "restaurant_id", req.RestaurantID.String(), "date", req.Date, "time", req.Time, "attempt", attempt, "error", err)
	}

	o := &outbox{}
	lost := &Reservation{RestaurantID: req.RestaurantID, Date: req.Date, Time: req.Time, PartySize: req.PartySize}
	o.notify(pkg.EventReservationAssignmentConflict, lost, window, conflictReason(req, err))
	s.dispatch(ctx, o)

	return nil, err
}

// conflictReason identifies a booking that never got a reservation id.
func conflictReason(req BookingRequest, err error) string {
	reason := fmt.Sprintf("booking for %s at %s %s", req.ContactName, req.Date, req.Time)
	if req.ContactInfo != "" {
		reason += " (" + req.ContactInfo + ")"
	}
	if req.IdempotencyKey != "" {
		reason += " key " + req.IdempotencyKey
	}
	return reason + ": " + err.Error()
}

func (s *Service) book(ctx context.Context, req BookingRequest) (*Reservation, TimeWindow, error) {
	unlock := s.locks.lock(bucketKey(req.RestaurantID, req.Date))
	o := &outbox{}
	defer func() {
		unlock()
		s.dispatch(ctx, o)
	}()

	if req.IdempotencyKey != "" {
		existing, err := s.reservationRepo.FindByIdempotencyKey(ctx, req.RestaurantID, req.IdempotencyKey)
		if err != nil {
			return nil, TimeWindow{}, fmt.Errorf("cannot look up idempotency key: %w", err)
		}
		if existing != nil {
			s.logger.Debug("idempotent booking replayed", "reservation_id", existing.ID.String())
			return existing, TimeWindow{}, nil
		}
	}

	snap, err := s.load(ctx, req.RestaurantID, req.Date)
	if err != nil {
		return nil, TimeWindow{}, err
	}

	av := s.evaluate(ctx, snap, req.availability(), uuid.Nil, true)
	if av.Violation != nil {
		s.logOutcome(req.availability(), av)
		return nil, TimeWindow{}, av.Violation
	}
	if !av.Available {
		s.logOutcome(req.availability(), av)
		return nil, *av.Window, &Unavailable{Availability: av}
	}
	window := *av.Window

	res := NewReservation()
	res.RestaurantID = req.RestaurantID
	res.Date = req.Date
	res.Time = req.Time
	res.PartySize = req.PartySize
	res.ContactName = req.ContactName
	res.ContactInfo = req.ContactInfo
	res.Notes = req.Notes
	res.IdempotencyKey = req.IdempotencyKey
	res.CreatedBy = seatingEventSource
	res.UpdatedBy = seatingEventSource
	res.BeforeCreate()

	if av.RequiresApproval {
		if err := s.reservationRepo.Create(ctx, res); err != nil {
			return nil, window, fmt.Errorf("cannot create reservation: %w", err)
		}
		o.notify(pkg.EventReservationPendingApproval, res, window,
			fmt.Sprintf("party of %d needs approval", res.PartySize))
		s.logger.Info("large group booked pending approval", "reservation_id", res.ID.String(), "party_size", res.PartySize)
		return res, window, nil
	}

	assignment, err := s.ledger.Commit(ctx, res.RestaurantID, res.ID, av.Combination.assigned(), window)
	if err != nil {
		return nil, window, err
	}

	res.Status = reservationstatus.Statuses.Confirmed.Code()
	res.TableIDs = assignment.TableIDs()

	if err := s.reservationRepo.Create(ctx, res); err != nil {
		if _, rerr := s.ledger.Release(ctx, res.ID); rerr != nil {
			s.logger.Error("cannot roll back assignment", "reservation_id", res.ID.String(), "error", rerr)
		}
		return nil, window, fmt.Errorf("cannot create reservation: %w", err)
	}

	s.markReserved(ctx, assignment, o)
	s.logger.Info("reservation confirmed", "reservation_id", res.ID.String(), "party_size", res.PartySize, "tables", len(res.TableIDs))
	return res, window, nil
}

// Approve confirms a pending reservation and commits tables for it. Without
// a combination the reservation stays pending.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != reservationstatus.Statuses.Pending.Code() {
		return nil, fmt.Errorf("%w: %s reservation cannot be approved", ErrInvalidTransition, res.Status)
	}

	return s.assign(ctx, res, reservationstatus.Statuses.Confirmed)
}

// Reassign runs the solver again for a confirmed or seated reservation
// that lost its tables and commits the new combination.
func (s *Service) Reassign(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case reservationstatus.Statuses.Confirmed.Code(), reservationstatus.Statuses.Seated.Code():
	default:
		return nil, fmt.Errorf("%w: %s reservation cannot be reassigned", ErrInvalidTransition, res.Status)
	}

	status := reservationstatus.ByName(res.Status)
	return s.assign(ctx, res, *status)
}

func (s *Service) assign(ctx context.Context, res *Reservation, status reservationstatus.Status) (*Reservation, error) {
	unlock := s.locks.lock(bucketKey(res.RestaurantID, res.Date))
	o := &outbox{}
	defer func() {
		unlock()
		s.dispatch(ctx, o)
	}()

	res, err := s.getReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}

	if existing := s.ledger.ForReservation(res.ID); existing != nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrAlreadyCommitted, res.ID)
	}

	snap, err := s.load(ctx, res.RestaurantID, res.Date)
	if err != nil {
		return nil, err
	}

	req := AvailabilityRequest{RestaurantID: res.RestaurantID, Date: res.Date, Time: res.Time, PartySize: res.PartySize}
	av := s.evaluate(ctx, snap, req, res.ID, true)
	if av.Violation != nil {
		return nil, av.Violation
	}
	if av.Combination == nil {
		av.Available = false
		if av.Reason == "" {
			av.Reason = ReasonNoCombination
		}
		return nil, &Unavailable{Availability: av}
	}

	assignment, err := s.ledger.Commit(ctx, res.RestaurantID, res.ID, av.Combination.assigned(), *av.Window)
	if err != nil {
		return nil, err
	}

	res.Status = status.Code()
	res.TableIDs = assignment.TableIDs()
	res.NeedsReassignment = false
	res.UpdatedBy = seatingEventSource
	res.BeforeUpdate()

	if err := s.reservationRepo.Save(ctx, res); err != nil {
		if _, rerr := s.ledger.Release(ctx, res.ID); rerr != nil {
			s.logger.Error("cannot roll back assignment", "reservation_id", res.ID.String(), "error", rerr)
		}
		return nil, fmt.Errorf("cannot save reservation: %w", err)
	}

	s.markReserved(ctx, assignment, o)
	s.logger.Info("tables assigned", "reservation_id", res.ID.String(), "status", res.Status, "tables", len(res.TableIDs))
	return res, nil
}

func (s *Service) getReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.reservationRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	return res, nil
}
