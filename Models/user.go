package Models

import (
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee       Role = "employee"
	RoleStationManager Role = "station_manager"
	RoleVOChief        Role = "vo_chief"
	RoleAdmin          Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleEmployee, RoleStationManager, RoleVOChief, RoleAdmin}

// Level is the role's rank; unknown roles rank below employee.
func (r Role) Level() int {
	return slices.Index(roleOrder, r) + 1
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.Level() > 0 && r.Level() >= min.Level()
}

func (r Role) Valid() bool {
	return slices.Contains(roleOrder, r)
}

type User struct {
	gorm.Model
	Name                 string `json:"name" gorm:"not null"`
	Email                string `json:"email" gorm:"not null;uniqueIndex"`
	Password             []byte `json:"-"`
	Role                 Role   `json:"role" gorm:"type:varchar(32);not null;default:'employee'"`
	OrganizationalUnitID *uint  `json:"organizational_unit_id" gorm:"index"`
}

// Caller is the authenticated identity handed to every operation.
type Caller struct {
	UserID    uint
	Role      Role
	OrgUnitID *uint
}

func (u User) Caller() Caller {
	return Caller{UserID: u.ID, Role: u.Role, OrgUnitID: u.OrganizationalUnitID}
}
