package Models_test

import (
	"testing"

	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, Models.RoleAdmin.AtLeast(Models.RoleVOChief))
	assert.True(t, Models.RoleStationManager.AtLeast(Models.RoleStationManager))
	assert.False(t, Models.RoleEmployee.AtLeast(Models.RoleStationManager))
	assert.False(t, Models.Role("guest").AtLeast(Models.RoleEmployee))
	assert.True(t, Models.RoleEmployee.Valid())
	assert.False(t, Models.Role("").Valid())
}

func TestUserCaller(t *testing.T) {
	unit := uint(3)
	u := Models.User{Role: Models.RoleVOChief, OrganizationalUnitID: &unit}
	u.ID = 9

	c := u.Caller()
	assert.Equal(t, uint(9), c.UserID)
	assert.Equal(t, Models.RoleVOChief, c.Role)
	assert.Equal(t, &unit, c.OrgUnitID)
}
