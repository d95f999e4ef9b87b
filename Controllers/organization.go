package Controllers

import (
	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// OrganizationController serves organizational units and stations
type OrganizationController struct {
	DB *gorm.DB
}

// NewOrganizationController creates a new OrganizationController
func NewOrganizationController(db *gorm.DB) *OrganizationController {
	return &OrganizationController{DB: db}
}

// AdminStations lists every station with its organizational unit. It runs
// on service credentials and does no per-user check.
func (c *OrganizationController) AdminStations(ctx *fiber.Ctx) error {
	stations := []Models.Station{}
	result := c.DB.WithContext(ctx.UserContext()).
		Preload("OrganizationalUnit").
		Order("name ASC").
		Find(&stations)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}
	return ctx.JSON(fiber.Map{"stations": stations})
}

// GetStations lists the stations visible to the caller
func (c *OrganizationController) GetStations(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	query := c.DB.WithContext(ctx.UserContext()).Model(&Models.Station{}).Preload("OrganizationalUnit")
	switch {
	case caller.Role.AtLeast(Models.RoleAdmin):
	case caller.Role.AtLeast(Models.RoleVOChief) && caller.OrgUnitID != nil:
		query = query.Where("organizational_unit_id = ?", *caller.OrgUnitID)
	default:
		query = query.Where("id IN (?)",
			c.DB.Model(&Models.UserStationLink{}).Select("station_id").Where("user_id = ?", caller.UserID))
	}

	stations := []Models.Station{}
	if err := query.Order("name ASC").Find(&stations).Error; err != nil {
		return respondError(ctx, AppErrors.Storage(err))
	}
	return ctx.JSON(fiber.Map{"stations": stations})
}

// GetOrgUnits lists organizational units with their stations
func (c *OrganizationController) GetOrgUnits(ctx *fiber.Ctx) error {
	units := []Models.OrganizationalUnit{}
	result := c.DB.WithContext(ctx.UserContext()).
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Find(&units)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}
	return ctx.JSON(fiber.Map{"organizational_units": units})
}
