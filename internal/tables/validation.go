package tables

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg/enums/reservationstatus"
	"github.com/appetiteclub/appetite/services/seating/pkg/enums/tablestatus"
)

func ValidateAvailabilityRequest(ctx context.Context, req AvailabilityRequest) []string {
	var errors []string

	if req.RestaurantID == uuid.Nil {
		errors = append(errors, "restaurant_id is required")
	}
	if _, err := time.Parse(DateLayout, req.Date); err != nil {
		errors = append(errors, "date must be YYYY-MM-DD")
	}
	if m, err := ParseClock(req.Time); err != nil || m >= minutesPerDay {
		errors = append(errors, "time must be HH:MM")
	}
	if req.PartySize <= 0 {
		errors = append(errors, "party_size must be greater than 0")
	}

	return errors
}

func ValidateBookingRequest(ctx context.Context, req BookingRequest) []string {
	errors := ValidateAvailabilityRequest(ctx, req.availability())

	if strings.TrimSpace(req.ContactName) == "" {
		errors = append(errors, "contact_name is required")
	}

	return errors
}

func ValidateReservationChanges(ctx context.Context, changes ReservationChanges) []string {
	var errors []string

	if changes.Date != nil {
		if _, err := time.Parse(DateLayout, *changes.Date); err != nil {
			errors = append(errors, "date must be YYYY-MM-DD")
		}
	}
	if changes.Time != nil {
		if m, err := ParseClock(*changes.Time); err != nil || m >= minutesPerDay {
			errors = append(errors, "time must be HH:MM")
		}
	}
	if changes.PartySize != nil && *changes.PartySize <= 0 {
		errors = append(errors, "party_size must be greater than 0")
	}
	if changes.Status != nil && reservationstatus.ByName(*changes.Status) == nil {
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidateTableCreate(ctx context.Context, req TableCreateRequest) []string {
	var errors []string

	if req.Number <= 0 {
		errors = append(errors, "number must be greater than 0")
	}
	if req.Capacity <= 0 {
		errors = append(errors, "capacity must be greater than 0")
	}
	if req.Status != "" && tablestatus.ByName(req.Status) == nil {
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidateTableUpdate(ctx context.Context, id uuid.UUID, req TableUpdateRequest) []string {
	var errors []string

	if id == uuid.Nil {
		errors = append(errors, "invalid table id")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		errors = append(errors, "capacity must be greater than 0")
	}
	if req.Status != nil && tablestatus.ByName(*req.Status) == nil {
		errors = append(errors, "invalid status")
	}

	return errors
}
