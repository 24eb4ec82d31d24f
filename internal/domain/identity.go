package domain

// Identity is the authenticated caller attached to a request by the gate.
// Roles always come from a fresh store lookup, never from token claims.
type Identity struct {
	Username string
	Roles    []string
}

// HasRole reports whether the identity carries the given role tag.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
