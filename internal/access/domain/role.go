package domain

import "fmt"

// Role is a user's platform-wide role. The ordering below (user < elevated <
// moderator < admin < superadmin) documents intent only: every role check in
// the gate is flat set-membership, and the single place hierarchy matters is
// the explicit superadmin bypass.
type Role string

const (
	RoleUser       Role = "user"
	RoleElevated   Role = "elevated"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleElevated, RoleModerator, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("domain: unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// IsSuperadmin reports whether the role bypasses module and role checks.
func (r Role) IsSuperadmin() bool { return r == RoleSuperadmin }
