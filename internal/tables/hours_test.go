package tables

import (
	"testing"
)

func TestResolveHours(t *testing.T) {
	// 2025-03-10 is a Monday, 2025-03-16 a Sunday.
	policy := &Policy{
		OpeningHours: map[string]DayHours{
			"monday":   {Open: "12:00", Close: "22:00"},
			"Tuesday":  {Open: "12:00", Close: "22:00"},
			"saturday": {Open: "", Close: "22:00"},
			"sunday":   {Closed: true, Open: "12:00", Close: "22:00"},
			"thursday": {Open: "22:00", Close: "12:00"},
			"friday":   {Open: "noon", Close: "22:00"},
		},
	}

	tests := []struct {
		name     string
		date     string
		policy   *Policy
		wantOpen bool
		want     Hours
	}{
		{name: "configuredDay", date: "2025-03-10", policy: policy, wantOpen: true, want: Hours{Open: 720, Close: 1320}},
		{name: "keyCaseIgnored", date: "2025-03-11", policy: policy, wantOpen: true, want: Hours{Open: 720, Close: 1320}},
		{name: "missingDay", date: "2025-03-12", policy: policy},
		{name: "closeBeforeOpen", date: "2025-03-13", policy: policy},
		{name: "malformedTime", date: "2025-03-14", policy: policy},
		{name: "emptyOpen", date: "2025-03-15", policy: policy},
		{name: "markedClosed", date: "2025-03-16", policy: policy},
		{name: "badDate", date: "10/03/2025", policy: policy},
		{name: "nilPolicy", date: "2025-03-10", policy: nil},
		{
			name: "ambiguousKeys",
			date: "2025-03-10",
			policy: &Policy{OpeningHours: map[string]DayHours{
				"monday": {Open: "12:00", Close: "22:00"},
				"Monday": {Open: "09:00", Close: "23:00"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, open := ResolveHours(tt.date, tt.policy)
			if open != tt.wantOpen {
				t.Fatalf("ResolveHours(%s) open = %v, want %v", tt.date, open, tt.wantOpen)
			}
			if open && got != tt.want {
				t.Errorf("ResolveHours(%s) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}

func TestHoursContains(t *testing.T) {
	h := Hours{Open: 720, Close: 1320}

	tests := []struct {
		name   string
		minute int
		want   bool
	}{
		{name: "atOpen", minute: 720, want: true},
		{name: "middle", minute: 900, want: true},
		{name: "beforeOpen", minute: 719, want: false},
		{name: "atClose", minute: 1320, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Contains(tt.minute); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.minute, got, tt.want)
			}
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	valid := newTestPolicy()
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}

	blank := newTestPolicy()
	blank.OpeningHours["sunday"] = DayHours{Open: "", Close: " "}
	if errs := blank.Validate(); len(errs) != 0 {
		t.Errorf("Validate() with a blank day = %v, want no errors", errs)
	}

	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{name: "zeroMin", mutate: func(p *Policy) { p.MinPartySize = 0 }},
		{name: "maxBelowMin", mutate: func(p *Policy) { p.MaxPartySize = 0 }},
		{name: "noDuration", mutate: func(p *Policy) { p.ServiceDurationMinutes = 0 }},
		{name: "negativeSlotLimit", mutate: func(p *Policy) { p.MaxReservationsPerSlot = -1 }},
		{name: "unknownDay", mutate: func(p *Policy) { p.OpeningHours["funday"] = DayHours{Open: "12:00", Close: "13:00"} }},
		{name: "badHours", mutate: func(p *Policy) { p.OpeningHours["monday"] = DayHours{Open: "23:00", Close: "12:00"} }},
		{name: "missingClose", mutate: func(p *Policy) { p.OpeningHours["monday"] = DayHours{Open: "12:00"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPolicy()
			tt.mutate(p)
			if errs := p.Validate(); len(errs) == 0 {
				t.Error("Validate() returned no errors")
			}
		})
	}
}

func TestPolicyRequiresApproval(t *testing.T) {
	p := newTestPolicy()
	p.LargeGroupThreshold = 6

	if p.RequiresApproval(6) {
		t.Error("party at threshold should not need approval")
	}
	if !p.RequiresApproval(7) {
		t.Error("party above threshold should need approval")
	}

	p.LargeGroupThreshold = 0
	if p.RequiresApproval(50) {
		t.Error("zero threshold should disable approval")
	}
}
