package seeding

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

const demoKeyPrefix = "demo-seed-"

type demoBooking struct {
	time    string
	party   int
	contact string
	notes   string
}

// A dinner service: an early lunch wave, a busy 19:00-20:30 peak and one
// large group that needs approval under the bootstrap policy.
var dinnerService = []demoBooking{
	{time: "12:30", party: 2, contact: "Lucía Fernández"},
	{time: "12:30", party: 4, contact: "Tomás Ibarra"},
	{time: "13:00", party: 3, contact: "Ana Costa", notes: "Window seat if possible"},
	{time: "19:00", party: 2, contact: "Marco Rossi"},
	{time: "19:00", party: 4, contact: "Sofía Méndez"},
	{time: "19:00", party: 5, contact: "Julien Moreau", notes: "Birthday"},
	{time: "19:30", party: 2, contact: "Hannah Becker"},
	{time: "19:30", party: 6, contact: "Diego Alvarez"},
	{time: "20:00", party: 4, contact: "Priya Nair"},
	{time: "20:00", party: 10, contact: "Acme Offsite", notes: "Company dinner, set menu"},
	{time: "20:30", party: 2, contact: "Kenji Sato"},
	{time: "20:30", party: 3, contact: "Olivia Brown"},
}

// DemoBookings lists the demo requests for a restaurant on date. Each carries
// a stable idempotency key so reruns do not double-book.
func DemoBookings(restaurantID uuid.UUID, date string) []tables.BookingRequest {
	out := make([]tables.BookingRequest, 0, len(dinnerService))
	for i, b := range dinnerService {
		out = append(out, tables.BookingRequest{
			RestaurantID:   restaurantID,
			Date:           date,
			Time:           b.time,
			PartySize:      b.party,
			ContactName:    b.contact,
			ContactInfo:    contactInfo(b.contact),
			Notes:          b.notes,
			IdempotencyKey: fmt.Sprintf("%s%s-%02d", demoKeyPrefix, date, i+1),
		})
	}
	return out
}

// IsDemo reports whether a reservation was created by DemoBookings.
func IsDemo(res *tables.Reservation) bool {
	return res != nil && strings.HasPrefix(res.IdempotencyKey, demoKeyPrefix)
}

func contactInfo(name string) string {
	first, _, _ := strings.Cut(strings.ToLower(name), " ")
	return first + "@example.com"
}
