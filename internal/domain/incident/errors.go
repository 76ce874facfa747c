package incident

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStatus   = errors.New("unknown incident status")
	ErrUnknownCategory = errors.New("unknown incident category")

	// ErrInvalidStateTransition marks a (from, to) pair outside the legal
	// edge set. Match with errors.Is; errors.As against
	// *InvalidTransitionError exposes the offending pair.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInsufficientRole marks a legal edge attempted by an actor whose
	// role set does not intersect the edge's required roles.
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrFinalCategoryMissing marks a close attempt without a final
	// category. Distinct from the transition check so callers can tell
	// "wrong workflow step" from "step reached but precondition unmet".
	ErrFinalCategoryMissing = errors.New("final category required before closing")

	// ErrNotReporter marks a draft edit or submit by someone other than
	// the original reporter.
	ErrNotReporter = errors.New("actor is not the incident reporter")
)

// InvalidTransitionError carries the current and attempted status of a
// rejected transition.
type InvalidTransitionError struct {
	Current   IncidentStatus
	Attempted IncidentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.Current, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// InsufficientRoleError carries the attempted transition target and the role
// set that would have been accepted.
type InsufficientRoleError struct {
	Attempted IncidentStatus
	Required  []string
}

func (e *InsufficientRoleError) Error() string {
	return fmt.Sprintf("insufficient role for transition to %s: requires one of %s",
		e.Attempted, strings.Join(e.Required, ", "))
}

func (e *InsufficientRoleError) Unwrap() error {
	return ErrInsufficientRole
}
