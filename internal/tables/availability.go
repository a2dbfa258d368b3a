package tables

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	ReasonCapacityUnavailable = "capacity_unavailable"
	ReasonCapacityUnknown     = "capacity_unknown"
	ReasonNoCombination       = "no_combination"
)

// Availability is the outcome of evaluating a request. A negative outcome
// is a normal result; fields describing capacity are set once the request
// passed policy checks.
type Availability struct {
	Available        bool             `json:"available"`
	Reason           string           `json:"reason,omitempty"`
	Violation        *PolicyViolation `json:"violation,omitempty"`
	Window           *TimeWindow      `json:"window,omitempty"`
	TotalCapacity    int              `json:"total_capacity"`
	Occupied         int              `json:"occupied"`
	Remaining        int              `json:"remaining"`
	Shortfall        int              `json:"shortfall,omitempty"`
	Overlapping      int              `json:"overlapping"`
	RequiresApproval bool             `json:"requires_approval,omitempty"`
	CapacityUnknown  bool             `json:"capacity_unknown,omitempty"`
	Combination      *Combination     `json:"combination,omitempty"`
	Alternatives     []string         `json:"alternatives"`
}

// snapshot is the store state one evaluation reads.
type snapshot struct {
	policy       *Policy
	tables       []*Table
	reservations []*Reservation
}

func (s *Service) load(ctx context.Context, restaurantID uuid.UUID, date string) (*snapshot, error) {
	policy, err := s.policyRepo.Get(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("cannot load policy: %w", err)
	}

	tables, err := s.tableRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}

	reservations, err := s.reservationRepo.ListByDate(ctx, restaurantID, date)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations: %w", err)
	}

	return &snapshot{policy: policy, tables: tables, reservations: reservations}, nil
}

// CheckAvailability reports whether the restaurant can seat the party. The
// error is reserved for invalid input and store failures.
func (s *Service) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*Availability, error) {
	if errs := ValidateAvailabilityRequest(ctx, req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, ", "))
	}

	snap, err := s.load(ctx, req.RestaurantID, req.Date)
	if err != nil {
		return nil, err
	}

	av := s.evaluate(ctx, snap, req, uuid.Nil, true)
	s.logOutcome(req, av)
	return av, nil
}

// evaluate runs the checks in order: hours, party bounds, slot limit, then
// capacity and the combination search. exclude is left out of the
// reservations considered, so a reservation can be re-evaluated against
// the others.
func (s *Service) evaluate(ctx context.Context, snap *snapshot, req AvailabilityRequest, exclude uuid.UUID, withAlternatives bool) *Availability {
	av := &Availability{Alternatives: []string{}}

	policy := snap.policy
	if policy == nil {
		return violation(av, RuleClosed, "", "no policy configured")
	}
	if errs := policy.Validate(); len(errs) > 0 {
		return violation(av, RuleClosed, "", "policy is malformed: "+strings.Join(errs, ", "))
	}

	hours, open := ResolveHours(req.Date, policy)
	if !open {
		return violation(av, RuleClosed, "", "restaurant is closed on "+req.Date)
	}

	minute, err := ParseClock(req.Time)
	if err != nil || !hours.Contains(minute) {
		return violation(av, RuleOutsideHours, hours.String(), req.Time+" is outside opening hours")
	}

	duration := policy.ServiceDurationMinutes
	if minute+duration > minutesPerDay {
		return violation(av, RuleCrossesMidnight, "24:00", "service would end after midnight")
	}

	if req.PartySize < policy.MinPartySize {
		return violation(av, RulePartySizeMin, strconv.Itoa(policy.MinPartySize),
			fmt.Sprintf("party of %d is below the minimum", req.PartySize))
	}
	if req.PartySize > policy.MaxPartySize {
		return violation(av, RulePartySizeMax, strconv.Itoa(policy.MaxPartySize),
			fmt.Sprintf("party of %d is above the maximum", req.PartySize))
	}

	window := NewWindow(req.Date, minute, duration, s.preRollMinutes())
	av.Window = &window

	others := without(snap.reservations, exclude)
	av.Overlapping = OverlappingCount(req.Date, minute, duration, s.preRollMinutes(), others)

	if policy.SlotLimited() && av.Overlapping >= policy.MaxReservationsPerSlot {
		violation(av, RuleSlotLimit, strconv.Itoa(policy.MaxReservationsPerSlot),
			fmt.Sprintf("%d reservations already overlap this slot", av.Overlapping))
		if withAlternatives {
			av.Alternatives = s.alternatives(ctx, snap, req, exclude, hours, minute)
		}
		return av
	}

	total, known := TotalCapacity(snap.tables)
	if !known {
		av.CapacityUnknown = true
		av.Reason = ReasonCapacityUnknown
		av.Shortfall = req.PartySize
		return av
	}

	av.TotalCapacity = total
	av.Occupied = Occupied(req.Date, minute, duration, s.preRollMinutes(), others)
	av.Remaining = Available(total, av.Occupied)
	av.RequiresApproval = policy.RequiresApproval(req.PartySize)

	candidates := s.freeCandidates(snap.tables, window)
	if combo, found := s.solver.Solve(ctx, req.PartySize, candidates); found {
		av.Combination = &combo
	}

	switch {
	case av.Combination != nil:
		av.Available = true
	case av.RequiresApproval && av.Remaining >= req.PartySize:
		// Large groups get their tables on approval.
		av.Available = true
	case av.Remaining < req.PartySize:
		av.Reason = ReasonCapacityUnavailable
		av.Shortfall = req.PartySize - av.Remaining
	default:
		av.Reason = ReasonNoCombination
		free := 0
		for _, c := range candidates {
			free += c.Capacity
		}
		if free < req.PartySize {
			av.Shortfall = req.PartySize - free
		}
	}

	if !av.Available && withAlternatives {
		av.Alternatives = s.alternatives(ctx, snap, req, exclude, hours, minute)
	}
	return av
}

// freeCandidates lists the operable tables the ledger has free in window.
func (s *Service) freeCandidates(tables []*Table, window TimeWindow) []Candidate {
	var out []Candidate
	for _, t := range tables {
		if t == nil || !t.Operable() {
			continue
		}
		if !s.ledger.IsFree(t.ID, window) {
			continue
		}
		out = append(out, t.candidate())
	}
	return out
}

// alternatives probes one and two slots either side of the requested time
// and keeps the available ones within opening hours, earliest first.
func (s *Service) alternatives(ctx context.Context, snap *snapshot, req AvailabilityRequest, exclude uuid.UUID, hours Hours, minute int) []string {
	slot := s.slotMinutes()
	var found []int

	for _, step := range []int{1, -1, 2, -2} {
		probe := minute + step*slot
		if probe < 0 || probe >= minutesPerDay || !hours.Contains(probe) {
			continue
		}
		alt := req
		alt.Time = FormatClock(probe)
		if av := s.evaluate(ctx, snap, alt, exclude, false); av.Available {
			found = append(found, probe)
		}
	}

	sort.Ints(found)
	out := make([]string, 0, len(found))
	for _, m := range found {
		out = append(out, FormatClock(m))
	}
	return out
}

func (s *Service) logOutcome(req AvailabilityRequest, av *Availability) {
	if av.Available {
		return
	}
	kv := []interface{}{
		"restaurant_id", req.RestaurantID.String(),
		"date", req.Date,
		"time", req.Time,
		"party_size", req.PartySize,
		"reason", av.Reason,
	}
	if av.Violation != nil {
		kv = append(kv, "rule", string(av.Violation.Rule))
	}
	s.logger.Debug("request not available", kv...)
}

func violation(av *Availability, rule Rule, limit, detail string) *Availability {
	av.Available = false
	av.Reason = string(rule)
	av.Violation = &PolicyViolation{Rule: rule, Limit: limit, Detail: detail}
	return av
}

func without(list []*Reservation, exclude uuid.UUID) []*Reservation {
	if exclude == uuid.Nil {
		return list
	}
	out := make([]*Reservation, 0, len(list))
	for _, r := range list {
		if r != nil && r.ID != exclude {
			out = append(out, r)
		}
	}
	return out
}
