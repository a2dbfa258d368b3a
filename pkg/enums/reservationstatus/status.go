package reservationstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	switch s {
	case Statuses.Completed, Statuses.Cancelled, Statuses.NoShow:
		return true
	}
	return false
}

// ReleasesTables reports whether reaching this status frees the tables
// committed to the reservation.
func (s Status) ReleasesTables() bool {
	return s.Terminal()
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Enum struct {
	Pending   Status
	Confirmed Status
	Seated    Status
	Completed Status
	Cancelled Status
	NoShow    Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Confirmed: Status{Name: "confirmed"},
	Seated:    Status{Name: "seated"},
	Completed: Status{Name: "completed"},
	Cancelled: Status{Name: "cancelled"},
	NoShow:    Status{Name: "no_show"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Seated,
	Statuses.Completed,
	Statuses.Cancelled,
	Statuses.NoShow,
}

var transitions = map[Status][]Status{
	Statuses.Pending:   {Statuses.Confirmed, Statuses.Cancelled},
	Statuses.Confirmed: {Statuses.Seated, Statuses.Cancelled, Statuses.NoShow},
	Statuses.Seated:    {Statuses.Completed},
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
