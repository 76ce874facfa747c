package incident

// transitionEdge is one legal edge of the lifecycle graph: the only valid
// source for the target status and the roles allowed to perform the move.
type transitionEdge struct {
	from  IncidentStatus
	roles []string
}

// legalTransitions maps each reachable target status to its single legal
// source and required role set. Any (from, to) pair not represented here is
// invalid, including no-ops and backward moves.
var legalTransitions = map[IncidentStatus]transitionEdge{
	StatusSubmitted:    {from: StatusDraft, roles: []string{RolePerawat}},
	StatusPJReviewed:   {from: StatusSubmitted, roles: []string{RolePJ}},
	StatusMutuReviewed: {from: StatusPJReviewed, roles: []string{RoleMutu}},
	StatusClosed:       {from: StatusMutuReviewed, roles: []string{RoleMutu, RoleAdmin}},
}

// RequiredRoles returns the role set allowed to move an incident into target,
// or nil when target is not reachable by any transition.
func RequiredRoles(target IncidentStatus) []string {
	edge, ok := legalTransitions[target]
	if !ok {
		return nil
	}
	out := make([]string, len(edge.roles))
	copy(out, edge.roles)
	return out
}

// EnsureTransition validates that an incident currently in `current` may move
// to `target` by an actor holding `actorRoles`. It is pure: no mutation, no
// I/O. The transition check runs before the role check, so an illegal edge is
// always reported as ErrInvalidStateTransition regardless of roles.
func EnsureTransition(current, target IncidentStatus, actorRoles []string) error {
	edge, ok := legalTransitions[target]
	if !ok || edge.from != current {
		return &InvalidTransitionError{Current: current, Attempted: target}
	}

	if !HasAnyRole(actorRoles, edge.roles...) {
		return &InsufficientRoleError{Attempted: target, Required: RequiredRoles(target)}
	}

	return nil
}
