package tables

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPolicyViolation     = errors.New("policy violation")
	ErrCapacityUnavailable = errors.New("capacity unavailable")
	ErrCapacityUnknown     = errors.New("capacity unknown")
	ErrAssignmentConflict  = errors.New("assignment conflict")
	ErrAlreadyCommitted    = errors.New("reservation already has a different assignment")
	ErrReconciliation      = errors.New("reconciliation failed")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidRequest      = errors.New("invalid request")
)

// Rule names the policy limit a request broke.
type Rule string

const (
	RuleClosed          Rule = "closed"
	RuleOutsideHours    Rule = "outside_hours"
	RuleCrossesMidnight Rule = "crosses_midnight"
	RulePartySizeMin    Rule = "party_size_min"
	RulePartySizeMax    Rule = "party_size_max"
	RuleSlotLimit       Rule = "slot_limit"
)

// PolicyViolation reports the specific limit a request broke. It is never
// retried.
type PolicyViolation struct {
	Rule   Rule   `json:"rule"`
	Limit  string `json:"limit,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (v *PolicyViolation) Error() string {
	if v.Limit == "" {
		return fmt.Sprintf("policy violation: %s: %s", v.Rule, v.Detail)
	}
	return fmt.Sprintf("policy violation: %s (limit %s): %s", v.Rule, v.Limit, v.Detail)
}

func (v *PolicyViolation) Unwrap() error {
	return ErrPolicyViolation
}

// Unavailable is the negative result of a booking attempt. It carries the
// availability evaluation with shortfall and alternatives.
type Unavailable struct {
	Availability *Availability
}

func (u *Unavailable) Error() string {
	if u.Availability == nil {
		return ErrCapacityUnavailable.Error()
	}
	if u.Availability.CapacityUnknown {
		return ErrCapacityUnknown.Error()
	}
	return fmt.Sprintf("%s: %s, short by %d seats", ErrCapacityUnavailable, u.Availability.Reason, u.Availability.Shortfall)
}

func (u *Unavailable) Unwrap() error {
	if u.Availability != nil && u.Availability.CapacityUnknown {
		return ErrCapacityUnknown
	}
	return ErrCapacityUnavailable
}

// ReconciliationFailure means an edit invalidated the committed tables. The
// reservation is persisted flagged for reassignment.
type ReconciliationFailure struct {
	ReservationID uuid.UUID
	Reason        string
}

func (f *ReconciliationFailure) Error() string {
	return fmt.Sprintf("reservation %s needs reassignment: %s", f.ReservationID, f.Reason)
}

func (f *ReconciliationFailure) Unwrap() error {
	return ErrReconciliation
}
