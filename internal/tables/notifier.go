package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg"
)

// Notification asks staff to follow up on a reservation.
type Notification struct {
	Type          string
	ReservationID uuid.UUID
	RestaurantID  uuid.UUID
	PartySize     int
	Window        TimeWindow
	Reason        string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// EventNotifier publishes notifications on the attention topic.
type EventNotifier struct {
	publisher events.Publisher
	logger    aqm.Logger
}

func NewEventNotifier(publisher events.Publisher, logger aqm.Logger) *EventNotifier {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &EventNotifier{publisher: publisher, logger: logger}
}

func (n *EventNotifier) Notify(ctx context.Context, note Notification) error {
	if n.publisher == nil {
		return nil
	}

	evt := pkg.ReservationAttentionEvent{
		EventType:     note.Type,
		ReservationID: note.ReservationID.String(),
		RestaurantID:  note.RestaurantID.String(),
		PartySize:     note.PartySize,
		Date:          note.Window.Date,
		WindowStart:   FormatClock(note.Window.Start),
		WindowEnd:     FormatClock(note.Window.End),
		Reason:        note.Reason,
		Source:        seatingEventSource,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("cannot encode attention event: %w", err)
	}

	if err := n.publisher.Publish(ctx, pkg.ReservationAttentionTopic, payload); err != nil {
		return fmt.Errorf("cannot publish attention event: %w", err)
	}

	n.logger.Debug("attention event published", "event_type", note.Type, "reservation_id", evt.ReservationID)
	return nil
}
