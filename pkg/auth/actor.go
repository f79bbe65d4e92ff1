package auth

import "github.com/angelmondragon/orderledger-backend/pkg/enums"

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	Username string
	Role     enums.UserRole
}

// IsAdmin reports whether the actor may act on any record.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanAccess reports whether the actor may read or change a record owned by
// owner and assigned to representative.
func (a Actor) CanAccess(owner, representative string) bool {
	if a.Username == "" {
		return false
	}
	if a.IsAdmin() || a.Username == owner {
		return true
	}
	return a.Role == enums.UserRoleRepresentative && representative != "" && a.Username == representative
}
