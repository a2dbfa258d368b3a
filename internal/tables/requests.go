package tables

import (
	"github.com/google/uuid"
)

type AvailabilityRequest struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PartySize    int       `json:"party_size"`
}

type BookingRequest struct {
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	PartySize      int       `json:"party_size"`
	ContactName    string    `json:"contact_name"`
	ContactInfo    string    `json:"contact_info"`
	Notes          string    `json:"notes,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

func (r BookingRequest) availability() AvailabilityRequest {
	return AvailabilityRequest{
		RestaurantID: r.RestaurantID,
		Date:         r.Date,
		Time:         r.Time,
		PartySize:    r.PartySize,
	}
}

// ReservationChanges lists the fields an update may touch. Nil fields are
// left as they are.
type ReservationChanges struct {
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	PartySize   *int    `json:"party_size,omitempty"`
	Status      *string `json:"status,omitempty"`
	ContactName *string `json:"contact_name,omitempty"`
	ContactInfo *string `json:"contact_info,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type TableCreateRequest struct {
	Number   int    `json:"number"`
	Label    string `json:"label,omitempty"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status,omitempty"`
}

type TableUpdateRequest struct {
	Label    *string `json:"label,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type PolicyRequest struct {
	OpeningHours           map[string]DayHours `json:"opening_hours"`
	MinPartySize           int                 `json:"min_party_size"`
	MaxPartySize           int                 `json:"max_party_size"`
	MaxReservationsPerSlot int                 `json:"max_reservations_per_slot"`
	ServiceDurationMinutes int                 `json:"service_duration_minutes"`
	LargeGroupThreshold    int                 `json:"large_group_threshold"`
}
