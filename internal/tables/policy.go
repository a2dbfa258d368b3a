package tables

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Policy holds the per-restaurant settings the engine reads: opening hours
// keyed by lowercase weekday name, party-size bounds, the slot limit, the
// service duration and the large-group threshold.
type Policy struct {
	RestaurantID           uuid.UUID           `json:"restaurant_id" bson:"_id"`
	OpeningHours           map[string]DayHours `json:"opening_hours" bson:"opening_hours"`
	MinPartySize           int                 `json:"min_party_size" bson:"min_party_size"`
	MaxPartySize           int                 `json:"max_party_size" bson:"max_party_size"`
	MaxReservationsPerSlot int                 `json:"max_reservations_per_slot" bson:"max_reservations_per_slot"`
	ServiceDurationMinutes int                 `json:"service_duration_minutes" bson:"service_duration_minutes"`
	LargeGroupThreshold    int                 `json:"large_group_threshold" bson:"large_group_threshold"`
	CreatedAt              time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at" bson:"updated_at"`
}

func (p *Policy) GetID() uuid.UUID {
	return p.RestaurantID
}

func (p *Policy) ResourceType() string {
	return "policy"
}

func (p *Policy) SetID(id uuid.UUID) {
	p.RestaurantID = id
}

func (p *Policy) BeforeCreate() {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Policy) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

// Validate lists what makes the policy unusable. The engine treats a
// restaurant with an invalid policy as closed.
func (p *Policy) Validate() []string {
	var errors []string

	if p.RestaurantID == uuid.Nil {
		errors = append(errors, "restaurant_id is required")
	}
	if p.MinPartySize < 1 {
		errors = append(errors, "min_party_size must be at least 1")
	}
	if p.MaxPartySize < p.MinPartySize {
		errors = append(errors, "max_party_size must not be below min_party_size")
	}
	if p.ServiceDurationMinutes <= 0 || p.ServiceDurationMinutes >= minutesPerDay {
		errors = append(errors, "service_duration_minutes must be between 1 and 1439")
	}
	if p.MaxReservationsPerSlot < 0 {
		errors = append(errors, "max_reservations_per_slot cannot be negative")
	}

	for day, dh := range p.OpeningHours {
		if !isWeekday(day) {
			errors = append(errors, "unknown weekday "+day)
			continue
		}
		// Blank hours close only that day.
		if dh.Closed || (strings.TrimSpace(dh.Open) == "" && strings.TrimSpace(dh.Close) == "") {
			continue
		}
		open, err := ParseClock(dh.Open)
		if err != nil {
			errors = append(errors, day+": invalid open time")
			continue
		}
		closing, err := ParseClock(dh.Close)
		if err != nil {
			errors = append(errors, day+": invalid close time")
			continue
		}
		if closing <= open {
			errors = append(errors, day+": close must be after open")
		}
	}

	return errors
}

// RequiresApproval reports whether a party is a large group. A threshold of
// zero or less disables approval.
func (p *Policy) RequiresApproval(partySize int) bool {
	return p.LargeGroupThreshold > 0 && partySize > p.LargeGroupThreshold
}

// SlotLimited reports whether the policy caps overlapping reservations.
func (p *Policy) SlotLimited() bool {
	return p.MaxReservationsPerSlot > 0
}

func isWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return true
		}
	}
	return false
}
