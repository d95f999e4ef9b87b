package Controllers

import (
	"time"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetController handles budget allocation across organizational units
type BudgetController struct {
	DB *gorm.DB
}

// NewBudgetController creates a new BudgetController
func NewBudgetController(db *gorm.DB) *BudgetController {
	return &BudgetController{DB: db}
}

// scopeUnits limits a query to the units the caller may see
func scopeUnits(query *gorm.DB, caller Models.Caller) (*gorm.DB, error) {
	if caller.Role.AtLeast(Models.RoleAdmin) {
		return query, nil
	}
	if caller.OrgUnitID == nil {
		return nil, AppErrors.Forbidden("no organizational unit assigned")
	}
	return query.Where("organizational_unit_id = ?", *caller.OrgUnitID), nil
}

// GetBudget lists allocations for a year
func (c *BudgetController) GetBudget(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	year, err := queryYear(ctx, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	query, err := scopeUnits(c.DB.WithContext(ctx.UserContext()).Model(&Models.BudgetAllocation{}), caller)
	if err != nil {
		return respondError(ctx, err)
	}

	allocations := []Models.BudgetAllocation{}
	result := query.Preload("OrganizationalUnit").
		Where("year = ?", year).
		Order("organizational_unit_id ASC, category ASC").
		Find(&allocations)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}
	return ctx.JSON(fiber.Map{"year": year, "allocations": allocations})
}

type budgetRequest struct {
	OrganizationalUnitID uint    `json:"organizational_unit_id" validate:"required"`
	Year                 int     `json:"year" validate:"required,gte=2000,lte=2100"`
	Category             string  `json:"category" validate:"required,max=100"`
	Amount               float64 `json:"amount" validate:"gte=0"`
	Note                 string  `json:"note"`
}

// UpsertBudget creates or replaces one allocation line
func (c *BudgetController) UpsertBudget(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	var input budgetRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, err)
	}

	if !caller.Role.AtLeast(Models.RoleAdmin) &&
		(caller.OrgUnitID == nil || *caller.OrgUnitID != input.OrganizationalUnitID) {
		return respondError(ctx, AppErrors.Forbidden("budget can only be set for your own organizational unit"))
	}

	var unit Models.OrganizationalUnit
	if err := c.DB.WithContext(ctx.UserContext()).First(&unit, input.OrganizationalUnitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(ctx, AppErrors.NotFound("organizational unit", input.OrganizationalUnitID))
		}
		return respondError(ctx, AppErrors.Storage(err))
	}

	allocation := Models.BudgetAllocation{
		OrganizationalUnitID: input.OrganizationalUnitID,
		Year:                 input.Year,
		Category:             input.Category,
		Amount:               input.Amount,
		Note:                 input.Note,
	}
	result := c.DB.WithContext(ctx.UserContext()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organizational_unit_id"}, {Name: "year"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "note", "updated_at"}),
	}).Create(&allocation)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}

	// Refresh allocation data
	err = c.DB.WithContext(ctx.UserContext()).
		Where("organizational_unit_id = ? AND year = ? AND category = ?", input.OrganizationalUnitID, input.Year, input.Category).
		First(&allocation).Error
	if err != nil {
		return respondError(ctx, AppErrors.Storage(err))
	}

	return ctx.JSON(fiber.Map{"success": true, "allocation": allocation})
}

// UnitTotal is one row of the budget summary
type UnitTotal struct {
	OrganizationalUnitID uint    `json:"organizational_unit_id"`
	Name                 string  `json:"name"`
	Total                float64 `json:"total"`
	LineCount            int64   `json:"line_count"`
}

// Summary totals the year's allocations per unit
func (c *BudgetController) Summary(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	year, err := queryYear(ctx, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	query := c.DB.WithContext(ctx.UserContext()).
		Table("budget_allocations").
		Select("budget_allocations.organizational_unit_id, organizational_units.name, COALESCE(SUM(budget_allocations.amount), 0) AS total, COUNT(*) AS line_count").
		Joins("JOIN organizational_units ON organizational_units.id = budget_allocations.organizational_unit_id").
		Where("budget_allocations.year = ? AND budget_allocations.deleted_at IS NULL", year).
		Group("budget_allocations.organizational_unit_id, organizational_units.name").
		Order("organizational_units.name ASC")
	if !caller.Role.AtLeast(Models.RoleAdmin) {
		if caller.OrgUnitID == nil {
			return respondError(ctx, AppErrors.Forbidden("no organizational unit assigned"))
		}
		query = query.Where("budget_allocations.organizational_unit_id = ?", *caller.OrgUnitID)
	}

	totals := []UnitTotal{}
	if err := query.Scan(&totals).Error; err != nil {
		return respondError(ctx, AppErrors.Storage(err))
	}

	var grand float64
	for _, t := range totals {
		grand += t.Total
	}
	return ctx.JSON(fiber.Map{"year": year, "units": totals, "total": grand})
}
