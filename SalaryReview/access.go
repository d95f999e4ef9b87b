package SalaryReview

import (
	"context"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Authorize checks that caller may review the employee. Admins review
// anyone, VO chiefs the employees of their unit's stations, station
// managers the employees of stations they are linked to.
func (w *Workflow) Authorize(ctx context.Context, caller Models.Caller, employeeID uint) (Models.Employee, error) {
	var employee Models.Employee
	if err := w.DB.WithContext(ctx).Preload("Station").First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Models.Employee{}, AppErrors.NotFound("employee", employeeID)
		}
		return Models.Employee{}, AppErrors.Storage(err)
	}

	switch {
	case caller.Role.AtLeast(Models.RoleAdmin):
		return employee, nil
	case caller.Role == Models.RoleVOChief:
		if caller.OrgUnitID != nil && employee.Station != nil && employee.Station.OrganizationalUnitID == *caller.OrgUnitID {
			return employee, nil
		}
	case caller.Role == Models.RoleStationManager:
		if employee.StationID == nil {
			break
		}
		var links int64
		err := w.DB.WithContext(ctx).Model(&Models.UserStationLink{}).
			Where("user_id = ? AND station_id = ?", caller.UserID, *employee.StationID).
			Count(&links).Error
		if err != nil {
			return Models.Employee{}, AppErrors.Storage(err)
		}
		if links > 0 {
			return employee, nil
		}
	}
	return Models.Employee{}, AppErrors.Forbidden("not allowed to review this employee")
}
