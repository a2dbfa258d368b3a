package tables

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DayHours is the configured opening window for one weekday.
type DayHours struct {
	Open   string `json:"open" bson:"open"`
	Close  string `json:"close" bson:"close"`
	Closed bool   `json:"closed,omitempty" bson:"closed,omitempty"`
}

// Hours is a resolved opening window in minutes since midnight.
type Hours struct {
	Open  int
	Close int
}

// Contains reports whether a start time is within [Open, Close).
func (h Hours) Contains(minute int) bool {
	return minute >= h.Open && minute < h.Close
}

func (h Hours) String() string {
	return FormatClock(h.Open) + "-" + FormatClock(h.Close)
}

// ResolveHours maps date to the opening window of its weekday. Anything it
// cannot interpret is reported as closed.
func ResolveHours(date string, policy *Policy) (Hours, bool) {
	if policy == nil || len(policy.OpeningHours) == 0 {
		return Hours{}, false
	}

	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return Hours{}, false
	}

	dh, ok := dayHours(policy.OpeningHours, day.Weekday())
	if !ok || dh.Closed {
		return Hours{}, false
	}

	if strings.TrimSpace(dh.Open) == "" || strings.TrimSpace(dh.Close) == "" {
		return Hours{}, false
	}

	open, err := ParseClock(dh.Open)
	if err != nil {
		return Hours{}, false
	}
	closing, err := ParseClock(dh.Close)
	if err != nil {
		return Hours{}, false
	}
	if closing <= open {
		return Hours{}, false
	}

	return Hours{Open: open, Close: closing}, true
}

// dayHours looks the weekday up by its English name, ignoring case. Two keys
// naming the same day are ambiguous and resolve to nothing.
func dayHours(week map[string]DayHours, weekday time.Weekday) (DayHours, bool) {
	name := weekday.String()

	var found DayHours
	matches := 0
	for key, dh := range week {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			found = dh
			matches++
		}
	}

	return found, matches == 1
}
