package tables

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeWindow is the interval a reservation occupies its tables, in minutes
// since midnight on Date, pre-roll included.
type TimeWindow struct {
	Date  string `json:"date" bson:"date"`
	Start int    `json:"start" bson:"start"`
	End   int    `json:"end" bson:"end"`
}

// NewWindow returns [requested - preRoll, requested + duration] on date.
func NewWindow(date string, requested, duration, preRoll int) TimeWindow {
	start := requested - preRoll
	if start < 0 {
		start = 0
	}
	return TimeWindow{Date: date, Start: start, End: requested + duration}
}

// Intersects reports whether two windows on the same date share any minute,
// endpoints included, matching Overlaps.
func (w TimeWindow) Intersects(other TimeWindow) bool {
	if w.Date != other.Date {
		return false
	}
	return w.Start <= other.End && other.Start <= w.End
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s-%s", w.Date, FormatClock(w.Start), FormatClock(w.End))
}

func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string `json:"date"`
		Start string `json:"start"`
		End   string `json:"end"`
	}{w.Date, FormatClock(w.Start), FormatClock(w.End)})
}

// Overlaps reports whether a reservation starting at other competes with one
// requested at requested. Both occupy [start - preRoll, start + duration];
// the windows overlap when they share any minute, endpoints included. A
// start time inside the requested window always overlaps.
func Overlaps(requested, duration, preRoll, other int) bool {
	start := requested - preRoll
	end := requested + duration
	return other-preRoll <= end && start <= other+duration
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted
// as the end of day.
func ParseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", value)
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", value, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", value, err)
	}

	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", value)
	}

	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
