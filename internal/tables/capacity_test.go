package tables

import (
	"testing"

	"github.com/google/uuid"
)

func TestOccupied(t *testing.T) {
	date := "2025-03-10"
	reservations := []*Reservation{
		{ID: uuid.New(), Date: date, Time: "14:00", PartySize: 4, Status: "confirmed"},
		{ID: uuid.New(), Date: date, Time: "15:00", PartySize: 2, Status: "pending"},
		{ID: uuid.New(), Date: date, Time: "14:30", PartySize: 6, Status: "cancelled"},
		{ID: uuid.New(), Date: date, Time: "19:00", PartySize: 3, Status: "confirmed"},
		{ID: uuid.New(), Date: "2025-03-11", Time: "14:00", PartySize: 5, Status: "confirmed"},
		{ID: uuid.New(), Date: date, Time: "garbage", PartySize: 1, Status: "confirmed"},
	}

	requested, _ := ParseClock("15:30")
	got := Occupied(date, requested, 120, 15, reservations)
	if got != 7 {
		t.Errorf("Occupied() = %d, want 7", got)
	}

	if n := OverlappingCount(date, requested, 120, 15, reservations); n != 3 {
		t.Errorf("OverlappingCount() = %d, want 3", n)
	}
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		occupied int
		want     int
	}{
		{name: "free", total: 20, occupied: 5, want: 15},
		{name: "full", total: 20, occupied: 20, want: 0},
		{name: "overbooked", total: 20, occupied: 25, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Available(tt.total, tt.occupied); got != tt.want {
				t.Errorf("Available(%d, %d) = %d, want %d", tt.total, tt.occupied, got, tt.want)
			}
		})
	}
}

func TestTotalCapacity(t *testing.T) {
	tests := []struct {
		name      string
		tables    []*Table
		want      int
		wantKnown bool
	}{
		{name: "empty", tables: nil, want: 0, wantKnown: false},
		{
			name: "skipsOutOfOrder",
			tables: []*Table{
				{Capacity: 4, Status: "available"},
				{Capacity: 6, Status: "out_of_order"},
				{Capacity: 2, Status: "occupied"},
			},
			want:      6,
			wantKnown: true,
		},
		{
			name:      "allOutOfOrder",
			tables:    []*Table{{Capacity: 4, Status: "out_of_order"}},
			want:      0,
			wantKnown: false,
		},
		{
			name:      "unknownStatusFailsClosed",
			tables:    []*Table{{Capacity: 4, Status: "mystery"}},
			want:      0,
			wantKnown: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := TotalCapacity(tt.tables)
			if got != tt.want || known != tt.wantKnown {
				t.Errorf("TotalCapacity() = (%d, %v), want (%d, %v)", got, known, tt.want, tt.wantKnown)
			}
		})
	}
}
