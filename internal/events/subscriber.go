package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
	"github.com/appetiteclub/appetite/services/seating/pkg"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
)

// ReservationUpdater applies status changes to reservations.
type ReservationUpdater interface {
	UpdateReservation(ctx context.Context, id uuid.UUID, changes tables.ReservationChanges) (*tables.Reservation, error)
}

// ReservationStatusSubscriber feeds status changes made by external CRUD
// layers into the engine so the ledger releases or keeps tables.
type ReservationStatusSubscriber struct {
	subscriber events.Subscriber
	updater    ReservationUpdater
	logger     aqm.Logger
}

func NewReservationStatusSubscriber(
	subscriber events.Subscriber,
	updater ReservationUpdater,
	logger aqm.Logger,
) *ReservationStatusSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &ReservationStatusSubscriber{
		subscriber: subscriber,
		updater:    updater,
		logger:     logger,
	}
}

func (s *ReservationStatusSubscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting ReservationStatusSubscriber for topic: " + pkg.ReservationStatusTopic)

	if err := s.subscriber.Subscribe(ctx, pkg.ReservationStatusTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pkg.ReservationStatusTopic, err)
	}

	s.logger.Info("ReservationStatusSubscriber started successfully")
	return nil
}

func (s *ReservationStatusSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *ReservationStatusSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt pkg.ReservationStatusEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal event: %v", err)
		return nil
	}

	switch evt.EventType {
	case pkg.EventReservationStatusChanged:
		return s.handleStatusChanged(ctx, &evt)
	default:
		s.logger.Infof("Unknown event type: %s", evt.EventType)
	}

	return nil
}

func (s *ReservationStatusSubscriber) handleStatusChanged(ctx context.Context, evt *pkg.ReservationStatusEvent) error {
	id, err := uuid.Parse(evt.ReservationID)
	if err != nil {
		s.logger.Errorf("Invalid reservation_id: %v", err)
		return nil
	}

	if reservationstatus.ByName(evt.Status) == nil {
		s.logger.Errorf("Invalid reservation status: %s", evt.Status)
		return nil
	}

	status := evt.Status
	res, err := s.updater.UpdateReservation(ctx, id, tables.ReservationChanges{Status: &status})

	var failure *tables.ReconciliationFailure
	switch {
	case err == nil:
		s.logger.Info("reservation status applied", "reservation_id", res.ID.String(), "status", res.Status, "source", evt.Source)
	case errors.As(err, &failure):
		s.logger.Info("reservation flagged for reassignment", "reservation_id", id.String(), "reason", failure.Reason)
	case errors.Is(err, tables.ErrReservationNotFound),
		errors.Is(err, tables.ErrInvalidTransition),
		errors.Is(err, tables.ErrInvalidRequest):
		s.logger.Info("reservation status ignored", "reservation_id", id.String(), "status", evt.Status, "error", err)
	default:
		return fmt.Errorf("cannot apply reservation status: %w", err)
	}

	return nil
}
