package incident

import "strings"

// Role names as stored in the roles table. The workflow trusts the set handed
// to it as already authenticated.
const (
	RolePerawat = "perawat"
	RolePJ      = "pj"
	RoleMutu    = "mutu"
	RoleAdmin   = "admin"
)

var reviewerRoles = []string{RolePJ, RoleMutu, RoleAdmin}

// NormalizeRoles lower-cases, trims and de-duplicates a role-name set.
func NormalizeRoles(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		role := strings.ToLower(strings.TrimSpace(raw))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

// HasAnyRole reports whether the actor's role set intersects required.
func HasAnyRole(roles []string, required ...string) bool {
	for _, have := range roles {
		for _, want := range required {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return true
			}
		}
	}
	return false
}

// IsReviewer reports whether the role set grants read access to incidents
// reported by other users.
func IsReviewer(roles []string) bool {
	return HasAnyRole(roles, reviewerRoles...)
}
