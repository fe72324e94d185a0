package domain

import (
	"time"
)

// Ancestry is the supervisory chain above a principal. Zero means "no
// ancestor at that level".
type Ancestry struct {
	Supervisor1ID uint `json:"supervisor1_id" gorm:"column:supervisor1_id;index"`
	Supervisor2ID uint `json:"supervisor2_id" gorm:"column:supervisor2_id;index"`
	SubsystemID   uint `json:"subsystem_id" gorm:"column:subsystem_id;index"`
}

// Principal is a row of one of the role partitions (see PrincipalTable).
// Every partition shares this schema; the Role is implied by the table.
//
//	agents:           full chain (supervisor1, supervisor2, subsystem)
//	supervisors1:     supervisor2, subsystem
//	supervisors2:     subsystem
//	subsystem_admins: subsystem (the subsystem administered)
//	masters:          none
type Principal struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Role     Role   `json:"role" gorm:"-"`
	Username string `json:"username" gorm:"column:username;uniqueIndex;not null"`
	Password string `json:"-" gorm:"column:password;not null"`
	FullName string `json:"full_name" gorm:"column:full_name"`
	Ancestry `gorm:"embedded"`

	IsActive    bool       `json:"is_active" gorm:"column:is_active;default:true"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Owns reports whether p sits in the ancestry of child. Master owns everyone.
func (p Principal) Owns(child Principal) bool {
	switch p.Role {
	case RoleMaster:
		return true
	case RoleSubsystem:
		return p.SubsystemID != 0 && child.SubsystemID == p.SubsystemID
	case RoleSupervisor2:
		return child.Supervisor2ID == p.ID
	case RoleSupervisor1:
		return child.Supervisor1ID == p.ID
	default:
		return false
	}
}

// ChildAncestry is the chain a new direct child of p inherits.
func (p Principal) ChildAncestry() Ancestry {
	a := p.Ancestry
	switch p.Role {
	case RoleSupervisor1:
		a.Supervisor1ID = p.ID
	case RoleSupervisor2:
		a.Supervisor1ID = 0
		a.Supervisor2ID = p.ID
	case RoleSubsystem:
		a = Ancestry{SubsystemID: p.SubsystemID}
	case RoleMaster:
		a = Ancestry{}
	}
	return a
}

// PrincipalDraft is the administrative request to create a principal.
type PrincipalDraft struct {
	Role     Role
	Username string
	Password string
	FullName string
	// ParentID is a row id in the parent role's partition: a supervisor2 names
	// a subsystem_admins row, a supervisor1 a supervisors2 row, an agent a
	// supervisors1 row. A subsystem administrator has no parent row, so for
	// that role ParentID carries the subsystem id itself.
	ParentID uint
}
