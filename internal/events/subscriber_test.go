package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
	"github.com/appetiteclub/appetite/services/seating/pkg"
)

// MockSubscriber implements events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockUpdater records the changes it receives
type MockUpdater struct {
	Calls      []tables.ReservationChanges
	UpdateFunc func(ctx context.Context, id uuid.UUID, changes tables.ReservationChanges) (*tables.Reservation, error)
}

func (m *MockUpdater) UpdateReservation(ctx context.Context, id uuid.UUID, changes tables.ReservationChanges) (*tables.Reservation, error) {
	m.Calls = append(m.Calls, changes)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, changes)
	}
	return &tables.Reservation{ID: id, Status: *changes.Status}, nil
}

func statusEvent(t *testing.T, eventType, reservationID, status string) []byte {
	t.Helper()
	data, err := json.Marshal(pkg.ReservationStatusEvent{
		EventType:     eventType,
		ReservationID: reservationID,
		Status:        status,
		Source:        "front-desk",
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}

func TestReservationStatusSubscriberStart(t *testing.T) {
	tests := []struct {
		name      string
		subErr    error
		wantErr   bool
		wantTopic string
	}{
		{name: "subscribes", wantTopic: pkg.ReservationStatusTopic},
		{name: "subscribeFails", subErr: errors.New("no connection"), wantErr: true, wantTopic: pkg.ReservationStatusTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var topic string
			sub := &MockSubscriber{
				SubscribeFunc: func(ctx context.Context, tp string, handler events.HandlerFunc) error {
					topic = tp
					return tt.subErr
				},
			}

			s := NewReservationStatusSubscriber(sub, &MockUpdater{}, nil)
			err := s.Start(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if topic != tt.wantTopic {
				t.Errorf("Start() topic = %q, want %q", topic, tt.wantTopic)
			}
			if err := s.Stop(context.Background()); err != nil {
				t.Errorf("Stop() error = %v", err)
			}
		})
	}
}

func TestReservationStatusSubscriberHandleEvent(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440200")

	tests := []struct {
		name      string
		msg       func(t *testing.T) []byte
		updateErr error
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "cancelled",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "cancelled") },
			wantCalls: 1,
		},
		{
			name:      "invalidJSON",
			msg:       func(t *testing.T) []byte { return []byte("not json") },
			wantCalls: 0,
		},
		{
			name:      "unknownEventType",
			msg:       func(t *testing.T) []byte { return statusEvent(t, "reservation.deleted", id.String(), "cancelled") },
			wantCalls: 0,
		},
		{
			name:      "invalidReservationID",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, "not-a-uuid", "cancelled") },
			wantCalls: 0,
		},
		{
			name:      "unknownStatus",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "lost") },
			wantCalls: 0,
		},
		{
			name:      "reservationMissing",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "seated") },
			updateErr: tables.ErrReservationNotFound,
			wantCalls: 1,
		},
		{
			name:      "transitionRejected",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "pending") },
			updateErr: tables.ErrInvalidTransition,
			wantCalls: 1,
		},
		{
			name:      "needsReassignment",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "seated") },
			updateErr: &tables.ReconciliationFailure{ReservationID: id, Reason: "table out of order"},
			wantCalls: 1,
		},
		{
			name:      "storeFailure",
			msg:       func(t *testing.T) []byte { return statusEvent(t, pkg.EventReservationStatusChanged, id.String(), "seated") },
			updateErr: errors.New("mongo unavailable"),
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater := &MockUpdater{}
			if tt.updateErr != nil {
				updater.UpdateFunc = func(ctx context.Context, rid uuid.UUID, changes tables.ReservationChanges) (*tables.Reservation, error) {
					return &tables.Reservation{ID: rid}, tt.updateErr
				}
			}

			s := NewReservationStatusSubscriber(&MockSubscriber{}, updater, nil)
			err := s.handleEvent(context.Background(), tt.msg(t))

			if (err != nil) != tt.wantErr {
				t.Errorf("handleEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(updater.Calls) != tt.wantCalls {
				t.Fatalf("UpdateReservation() calls = %d, want %d", len(updater.Calls), tt.wantCalls)
			}
			if tt.wantCalls > 0 && updater.Calls[0].Status == nil {
				t.Error("UpdateReservation() should receive the status change")
			}
		})
	}
}
