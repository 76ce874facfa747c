package ports

// Actor is the acting principal of one request: identity plus the role-name
// set the identity boundary already authenticated. The core trusts this set.
type Actor struct {
	ID    int64
	Email string
	Roles []string
}
