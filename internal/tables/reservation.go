package tables

import (
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
)

// Reservation is a booking for a party on a date at a start time. TableIDs
// is written only by the engine and mirrors the Ledger assignment.
type Reservation struct {
	ID                uuid.UUID   `json:"id" bson:"_id"`
	RestaurantID      uuid.UUID   `json:"restaurant_id" bson:"restaurant_id"`
	Date              string      `json:"date" bson:"date"`
	Time              string      `json:"time" bson:"time"`
	PartySize         int         `json:"party_size" bson:"party_size"`
	Status            string      `json:"status" bson:"status"`
	TableIDs          []uuid.UUID `json:"table_ids,omitempty" bson:"table_ids,omitempty"`
	NeedsReassignment bool        `json:"needs_reassignment" bson:"needs_reassignment"`
	ContactName       string      `json:"contact_name" bson:"contact_name"`
	ContactInfo       string      `json:"contact_info" bson:"contact_info"`
	Notes             string      `json:"notes,omitempty" bson:"notes,omitempty"`
	IdempotencyKey    string      `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CreatedAt         time.Time   `json:"created_at" bson:"created_at"`
	CreatedBy         string      `json:"created_by" bson:"created_by"`
	UpdatedAt         time.Time   `json:"updated_at" bson:"updated_at"`
	UpdatedBy         string      `json:"updated_by" bson:"updated_by"`
}

func (r *Reservation) GetID() uuid.UUID {
	return r.ID
}

func (r *Reservation) ResourceType() string {
	return "reservation"
}

func (r *Reservation) SetID(id uuid.UUID) {
	r.ID = id
}

func NewReservation() *Reservation {
	return &Reservation{
		ID:     aqm.GenerateNewID(),
		Status: reservationstatus.Statuses.Pending.Code(),
	}
}

func (r *Reservation) EnsureID() {
	if r.ID == uuid.Nil {
		r.ID = aqm.GenerateNewID()
	}
}

func (r *Reservation) BeforeCreate() {
	r.EnsureID()
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
}

func (r *Reservation) BeforeUpdate() {
	r.UpdatedAt = time.Now()
}

func (r *Reservation) IsCancelled() bool {
	return r.Status == reservationstatus.Statuses.Cancelled.Code()
}

// TransitionTo moves the reservation to the named status if the lifecycle
// allows it. Moving to the current status is a no-op.
func (r *Reservation) TransitionTo(name string) error {
	if name == r.Status {
		return nil
	}

	current := reservationstatus.ByName(r.Status)
	next := reservationstatus.ByName(name)
	if current == nil || next == nil {
		return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, r.Status, name)
	}
	if !current.CanTransitionTo(*next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Code(), next.Code())
	}

	r.Status = next.Code()
	return nil
}

func (r *Reservation) releasesTables() bool {
	s := reservationstatus.ByName(r.Status)
	return s != nil && s.ReleasesTables()
}
