package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of principal kinds. The zero value is not a valid role.
type Role int

const (
	RoleUnknown Role = iota
	RoleAgent
	RoleSupervisor1
	RoleSupervisor2
	RoleSubsystem
	RoleMaster
)

var allRoles = []Role{RoleAgent, RoleSupervisor1, RoleSupervisor2, RoleSubsystem, RoleMaster}

// Roles returns every valid role, leaf first.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r Role) String() string {
	switch r {
	case RoleAgent:
		return "agent"
	case RoleSupervisor1:
		return "supervisor1"
	case RoleSupervisor2:
		return "supervisor2"
	case RoleSubsystem:
		return "subsystem"
	case RoleMaster:
		return "master"
	default:
		return "unknown"
	}
}

func (r Role) Valid() bool {
	return r >= RoleAgent && r <= RoleMaster
}

// IsSupervisor reports whether the role sits above agents in the hierarchy.
func (r Role) IsSupervisor() bool {
	switch r {
	case RoleSupervisor1, RoleSupervisor2, RoleSubsystem, RoleMaster:
		return true
	default:
		return false
	}
}

// Parent returns the role that directly owns principals of role r.
func (r Role) Parent() Role {
	switch r {
	case RoleAgent:
		return RoleSupervisor1
	case RoleSupervisor1:
		return RoleSupervisor2
	case RoleSupervisor2:
		return RoleSubsystem
	case RoleSubsystem:
		return RoleMaster
	default:
		return RoleUnknown
	}
}

// ParseRole accepts the wire names, plus the "admin" alias used by the
// login form for subsystem administrators.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent":
		return RoleAgent, nil
	case "supervisor1":
		return RoleSupervisor1, nil
	case "supervisor2":
		return RoleSupervisor2, nil
	case "subsystem", "admin":
		return RoleSubsystem, nil
	case "master":
		return RoleMaster, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// PrincipalTable maps a role to the table holding its principals.
func PrincipalTable(r Role) (string, error) {
	switch r {
	case RoleAgent:
		return "agents", nil
	case RoleSupervisor1:
		return "supervisors1", nil
	case RoleSupervisor2:
		return "supervisors2", nil
	case RoleSubsystem:
		return "subsystem_admins", nil
	case RoleMaster:
		return "masters", nil
	default:
		return "", fmt.Errorf("no principal table for role %s", r)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
