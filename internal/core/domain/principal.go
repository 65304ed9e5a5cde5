package domain

import "strings"

// Role is the privilege tier of a principal.
type Role string

const (
	RoleVolunteer Role = "VOLUNTEER"
	RoleAdmin     Role = "ADMIN"
	RoleWebMaster Role = "WEB_MASTER"
)

var roleRank = map[Role]int{
	RoleVolunteer: 1,
	RoleAdmin:     2,
	RoleWebMaster: 3,
}

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

// Rank orders roles by privilege. Unknown roles rank 0.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r is as privileged as min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

// Principal is the authenticated actor performing an operation.
// FieldID is empty only for web masters.
type Principal struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	FieldID string `json:"field_id,omitempty"`
}

// IsWebMaster reports whether the principal is exempt from tenant checks.
func (p Principal) IsWebMaster() bool {
	return p.Role == RoleWebMaster
}
