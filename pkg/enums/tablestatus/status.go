package tablestatus

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

type Enum struct {
	Available  Status
	Occupied   Status
	Reserved   Status
	Cleaning   Status
	OutOfOrder Status
}

var Statuses = Enum{
	Available:  Status{Name: "available"},
	Occupied:   Status{Name: "occupied"},
	Reserved:   Status{Name: "reserved"},
	Cleaning:   Status{Name: "cleaning"},
	OutOfOrder: Status{Name: "out_of_order"},
}

var All = []Status{
	Statuses.Available,
	Statuses.Occupied,
	Statuses.Reserved,
	Statuses.Cleaning,
	Statuses.OutOfOrder,
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

// Operable reports whether a table in the named status counts towards
// capacity. Unknown names are treated as not operable.
func Operable(name string) bool {
	s := ByName(name)
	if s == nil {
		return false
	}
	return *s != Statuses.OutOfOrder
}
