package postgres

import (
	"borlette/domain"

	"gorm.io/gorm"
)

// Each principal partition gets its own row type so gorm derives distinct
// index names per table. Queries use domain.Principal with Table().
type (
	agentRow       struct{ domain.Principal }
	supervisor1Row struct{ domain.Principal }
	supervisor2Row struct{ domain.Principal }
	subsystemRow   struct{ domain.Principal }
	masterRow      struct{ domain.Principal }
)

func (agentRow) TableName() string       { return mustTable(domain.RoleAgent) }
func (supervisor1Row) TableName() string { return mustTable(domain.RoleSupervisor1) }
func (supervisor2Row) TableName() string { return mustTable(domain.RoleSupervisor2) }
func (subsystemRow) TableName() string   { return mustTable(domain.RoleSubsystem) }
func (masterRow) TableName() string      { return mustTable(domain.RoleMaster) }

func mustTable(role domain.Role) string {
	name, err := domain.PrincipalTable(role)
	if err != nil {
		panic(err)
	}
	return name
}

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&agentRow{},
		&supervisor1Row{},
		&supervisor2Row{},
		&subsystemRow{},
		&masterRow{},
		&domain.Ticket{},
		&domain.DrawResult{},
	)
}
