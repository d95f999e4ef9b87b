// Package SalaryReview creates review records per employee and cycle and
// validates the criteria assessments submitted against them.
package SalaryReview

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoActiveCycle is returned instead of a review when no cycle is open.
// Callers render it as an informational state.
var ErrNoActiveCycle = errors.New("no active salary review cycle")

// MinEvidenceLength applies to the two highest ratings.
const MinEvidenceLength = 10

var Ratings = []string{
	Models.RatingNeedsDevelopment,
	Models.RatingGood,
	Models.RatingVeryGood,
	Models.RatingExcellent,
}

// ValidateCriteriaAssessment checks one rating and its evidence text.
func ValidateCriteriaAssessment(rating, evidence string) error {
	if !slices.Contains(Ratings, rating) {
		return AppErrors.Validation("rating", "must be one of needs_development, good, very_good, excellent")
	}
	if rating == Models.RatingVeryGood || rating == Models.RatingExcellent {
		if utf8.RuneCountInString(strings.TrimSpace(evidence)) < MinEvidenceLength {
			return AppErrors.Validation("evidence", "at least 10 characters of evidence are required for this rating")
		}
	}
	return nil
}

type Workflow struct {
	DB *gorm.DB
}

func NewWorkflow(db *gorm.DB) *Workflow {
	return &Workflow{DB: db}
}

// ActiveCycle returns the open cycle or ErrNoActiveCycle.
func (w *Workflow) ActiveCycle(ctx context.Context) (Models.SalaryReviewCycle, error) {
	var cycles []Models.SalaryReviewCycle
	err := w.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		Limit(1).
		Find(&cycles).Error
	if err != nil {
		return Models.SalaryReviewCycle{}, AppErrors.Storage(err)
	}
	if len(cycles) == 0 {
		return Models.SalaryReviewCycle{}, ErrNoActiveCycle
	}
	return cycles[0], nil
}

// GetOrCreateReview returns the review for (employee, cycle), creating it
// in_progress with managerID when absent. A zero cycleID means the active
// cycle. The insert is conditional on the unique (employee_id, cycle_id)
// index so concurrent callers end up with the same row.
func (w *Workflow) GetOrCreateReview(ctx context.Context, employeeID, cycleID, managerID uint) (Models.SalaryReview, error) {
	cycle, err := w.ActiveCycle(ctx)
	if err != nil {
		return Models.SalaryReview{}, err
	}
	if cycleID != 0 && cycleID != cycle.ID {
		return Models.SalaryReview{}, ErrNoActiveCycle
	}

	var employee Models.Employee
	if err := w.DB.WithContext(ctx).First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Models.SalaryReview{}, AppErrors.NotFound("employee", employeeID)
		}
		return Models.SalaryReview{}, AppErrors.Storage(err)
	}

	review := Models.SalaryReview{
		EmployeeID: employeeID,
		CycleID:    cycle.ID,
		ManagerID:  managerID,
		Status:     Models.ReviewInProgress,
	}
	err = w.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "cycle_id"}},
		DoNothing: true,
	}).Create(&review).Error
	if err != nil {
		return Models.SalaryReview{}, AppErrors.Storage(err)
	}

	return w.loadReview(ctx, w.DB.Where("employee_id = ? AND cycle_id = ?", employeeID, cycle.ID))
}

// Review loads a review by id with its assessments.
func (w *Workflow) Review(ctx context.Context, reviewID uint) (Models.SalaryReview, error) {
	return w.loadReview(ctx, w.DB.Where("id = ?", reviewID))
}

type AssessmentInput struct {
	CriterionID uint   `json:"criterionId" validate:"required"`
	Rating      string `json:"rating" validate:"required"`
	Evidence    string `json:"evidence"`
}

// SubmitAssessments validates every input before writing any of them, then
// upserts one assessment per criterion. Once all criteria are assessed the
// review is marked completed.
func (w *Workflow) SubmitAssessments(ctx context.Context, reviewID uint, inputs []AssessmentInput) (Models.SalaryReview, error) {
	if len(inputs) == 0 {
		return Models.SalaryReview{}, AppErrors.Validation("assessments", "at least one assessment is required")
	}
	for _, in := range inputs {
		if in.CriterionID == 0 {
			return Models.SalaryReview{}, AppErrors.Validation("criterionId", "is required")
		}
		if err := ValidateCriteriaAssessment(in.Rating, in.Evidence); err != nil {
			return Models.SalaryReview{}, err
		}
	}

	review, err := w.Review(ctx, reviewID)
	if err != nil {
		return Models.SalaryReview{}, err
	}

	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			var criterion Models.SalaryCriterion
			if err := tx.First(&criterion, in.CriterionID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return AppErrors.NotFound("criterion", in.CriterionID)
				}
				return AppErrors.Storage(err)
			}

			assessment := Models.CriteriaAssessment{
				ReviewID:    review.ID,
				CriterionID: in.CriterionID,
				Rating:      in.Rating,
				Evidence:    in.Evidence,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "review_id"}, {Name: "criterion_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"rating", "evidence", "updated_at"}),
			}).Create(&assessment).Error
			if err != nil {
				return AppErrors.Storage(err)
			}
		}

		var criteria, assessed int64
		if err := tx.Model(&Models.SalaryCriterion{}).Count(&criteria).Error; err != nil {
			return AppErrors.Storage(err)
		}
		if err := tx.Model(&Models.CriteriaAssessment{}).Where("review_id = ?", review.ID).Count(&assessed).Error; err != nil {
			return AppErrors.Storage(err)
		}
		status := Models.ReviewInProgress
		if criteria > 0 && assessed >= criteria {
			status = Models.ReviewCompleted
		}
		if err := tx.Model(&Models.SalaryReview{}).Where("id = ?", review.ID).Update("status", status).Error; err != nil {
			return AppErrors.Storage(err)
		}
		return nil
	})
	if err != nil {
		return Models.SalaryReview{}, err
	}

	return w.Review(ctx, reviewID)
}

// Criteria lists the assessment criteria in display order.
func (w *Workflow) Criteria(ctx context.Context) ([]Models.SalaryCriterion, error) {
	criteria := []Models.SalaryCriterion{}
	if err := w.DB.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&criteria).Error; err != nil {
		return nil, AppErrors.Storage(err)
	}
	return criteria, nil
}

func (w *Workflow) loadReview(ctx context.Context, query *gorm.DB) (Models.SalaryReview, error) {
	var review Models.SalaryReview
	err := query.WithContext(ctx).
		Preload("Assessments", func(db *gorm.DB) *gorm.DB { return db.Order("criterion_id ASC") }).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Models.SalaryReview{}, AppErrors.NotFound("review", nil)
		}
		return Models.SalaryReview{}, AppErrors.Storage(err)
	}
	return review, nil
}
