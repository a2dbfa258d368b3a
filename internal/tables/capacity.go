package tables

// Occupied sums the party sizes of non-cancelled reservations on date that
// overlap the requested window. A reservation whose time cannot be parsed is
// counted.
func Occupied(date string, requested, duration, preRoll int, reservations []*Reservation) int {
	total := 0
	for _, r := range overlapping(date, requested, duration, preRoll, reservations) {
		total += r.PartySize
	}
	return total
}

// OverlappingCount counts the non-cancelled reservations on date that
// overlap the requested window.
func OverlappingCount(date string, requested, duration, preRoll int, reservations []*Reservation) int {
	return len(overlapping(date, requested, duration, preRoll, reservations))
}

// Available is the capacity left once occupied seats are taken, never
// negative.
func Available(total, occupied int) int {
	if occupied >= total {
		return 0
	}
	return total - occupied
}

// TotalCapacity sums the seats of operable tables. It reports false when no
// operable table exists, in which case capacity is unknown.
func TotalCapacity(tables []*Table) (int, bool) {
	total := 0
	operable := 0
	for _, t := range tables {
		if t == nil || !t.Operable() {
			continue
		}
		total += t.Capacity
		operable++
	}
	return total, operable > 0
}

func overlapping(date string, requested, duration, preRoll int, reservations []*Reservation) []*Reservation {
	var result []*Reservation
	for _, r := range reservations {
		if r == nil || r.IsCancelled() || r.Date != date {
			continue
		}
		minute, err := ParseClock(r.Time)
		if err != nil {
			result = append(result, r)
			continue
		}
		if Overlaps(requested, duration, preRoll, minute) {
			result = append(result, r)
		}
	}
	return result
}
