package Models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Employee struct {
	gorm.Model
	Name      string   `json:"name" gorm:"not null"`
	Email     string   `json:"email"`
	Title     string   `json:"title"`
	UserID    *uint    `json:"user_id" gorm:"index"`
	StationID *uint    `json:"station_id" gorm:"index"`
	Station   *Station `json:"station,omitempty" gorm:"foreignKey:StationID"`
}

// SalaryReviewCycle is the period in which assessments are collected. At most
// one cycle is expected to be active at a time.
type SalaryReviewCycle struct {
	gorm.Model
	Name      string         `json:"name" gorm:"not null"`
	StartDate datatypes.Date `json:"start_date"`
	EndDate   datatypes.Date `json:"end_date"`
	IsActive  bool           `json:"is_active" gorm:"not null;default:false;index"`
}

type SalaryCriterion struct {
	gorm.Model
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	SortOrder   int    `json:"sort_order" gorm:"not null;default:0"`
}

const (
	ReviewInProgress = "in_progress"
	ReviewCompleted  = "completed"
)

type SalaryReview struct {
	gorm.Model
	EmployeeID  uint                 `json:"employee_id" gorm:"not null;uniqueIndex:idx_review_employee_cycle"`
	CycleID     uint                 `json:"cycle_id" gorm:"not null;uniqueIndex:idx_review_employee_cycle"`
	ManagerID   uint                 `json:"manager_id" gorm:"not null"`
	Status      string               `json:"status" gorm:"size:32;not null;default:'in_progress'"`
	Assessments []CriteriaAssessment `json:"assessments,omitempty" gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
}

const (
	RatingNeedsDevelopment = "needs_development"
	RatingGood             = "good"
	RatingVeryGood         = "very_good"
	RatingExcellent        = "excellent"
)

type CriteriaAssessment struct {
	gorm.Model
	ReviewID    uint   `json:"review_id" gorm:"not null;uniqueIndex:idx_assessment_review_criterion"`
	CriterionID uint   `json:"criterion_id" gorm:"not null;uniqueIndex:idx_assessment_review_criterion"`
	Rating      string `json:"rating" gorm:"size:32;not null"`
	Evidence    string `json:"evidence" gorm:"type:text"`
}
