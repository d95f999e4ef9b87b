package Models

import "gorm.io/gorm"

// BudgetAllocation is one budget line for an organizational unit and year.
type BudgetAllocation struct {
	gorm.Model
	OrganizationalUnitID uint                `json:"organizational_unit_id" gorm:"not null;uniqueIndex:idx_budget_unit_year_category"`
	Year                 int                 `json:"year" gorm:"not null;uniqueIndex:idx_budget_unit_year_category"`
	Category             string              `json:"category" gorm:"size:100;not null;uniqueIndex:idx_budget_unit_year_category"`
	Amount               float64             `json:"amount" gorm:"not null;default:0"`
	Note                 string              `json:"note"`
	OrganizationalUnit   *OrganizationalUnit `json:"organizational_unit,omitempty" gorm:"foreignKey:OrganizationalUnitID"`
}
