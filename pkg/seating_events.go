package pkg

import "time"

const (
	// TableStatusTopic delivers advisory status changes for tables.
	TableStatusTopic = "tables.status"
	// ReservationAttentionTopic carries reservations that need staff follow-up.
	ReservationAttentionTopic = "reservations.attention"
	// ReservationStatusTopic is fed by external CRUD layers when a
	// reservation changes status outside the engine.
	ReservationStatusTopic = "reservations.status"

	// EventTableStatusChanged identifies a table status change event payload.
	EventTableStatusChanged = "table.status.changed"
	// EventReservationPendingApproval is emitted for large-group bookings.
	EventReservationPendingApproval = "reservation.pending_approval"
	// EventReservationAssignmentConflict is emitted when a booking lost a
	// race for its tables twice.
	EventReservationAssignmentConflict = "reservation.assignment_conflict"
	// EventReservationNeedsReassignment is emitted when an edit invalidated
	// the committed tables.
	EventReservationNeedsReassignment = "reservation.needs_reassignment"
	// EventReservationStatusChanged identifies an external status change.
	EventReservationStatusChanged = "reservation.status.changed"
)

// TableStatusEvent captures the advisory status of a table after the engine
// committed or released it.
type TableStatusEvent struct {
	EventType      string    `json:"event_type"`
	TableID        string    `json:"table_id"`
	RestaurantID   string    `json:"restaurant_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	ReservationID  string    `json:"reservation_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Source         string    `json:"source,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ReservationAttentionEvent asks a human to look at a reservation.
type ReservationAttentionEvent struct {
	EventType     string    `json:"event_type"`
	ReservationID string    `json:"reservation_id"`
	RestaurantID  string    `json:"restaurant_id"`
	PartySize     int       `json:"party_size"`
	Date          string    `json:"date"`
	WindowStart   string    `json:"window_start"`
	WindowEnd     string    `json:"window_end"`
	Reason        string    `json:"reason"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationStatusEvent is published by external collaborators when they
// cancel, seat or complete a reservation.
type ReservationStatusEvent struct {
	EventType     string    `json:"event_type"`
	ReservationID string    `json:"reservation_id"`
	Status        string    `json:"status"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
