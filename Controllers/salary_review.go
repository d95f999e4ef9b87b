package Controllers

import (
	"github.com/Barrelito/sam-a-sub001/SalaryReview"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// SalaryReviewController handles review cycles and criteria assessments
type SalaryReviewController struct {
	Workflow *SalaryReview.Workflow
}

// NewSalaryReviewController creates a new SalaryReviewController
func NewSalaryReviewController(workflow *SalaryReview.Workflow) *SalaryReviewController {
	return &SalaryReviewController{Workflow: workflow}
}

// GetActiveCycle returns the open cycle, or active=false
func (c *SalaryReviewController) GetActiveCycle(ctx *fiber.Ctx) error {
	cycle, err := c.Workflow.ActiveCycle(ctx.UserContext())
	if errors.Is(err, SalaryReview.ErrNoActiveCycle) {
		return ctx.JSON(fiber.Map{"active": false})
	}
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"active": true, "cycle": cycle})
}

// GetCriteria lists the assessment criteria
func (c *SalaryReviewController) GetCriteria(ctx *fiber.Ctx) error {
	criteria, err := c.Workflow.Criteria(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"criteria": criteria})
}

// GetEmployeeReview opens (and on first access creates) the employee's
// review in the active cycle
func (c *SalaryReviewController) GetEmployeeReview(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	employeeID, err := paramID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}
	cycleID, err := optionalUint(ctx, "cycleId")
	if err != nil {
		return respondError(ctx, err)
	}

	employee, err := c.Workflow.Authorize(ctx.UserContext(), caller, employeeID)
	if err != nil {
		return respondError(ctx, err)
	}

	var requested uint
	if cycleID != nil {
		requested = *cycleID
	}
	review, err := c.Workflow.GetOrCreateReview(ctx.UserContext(), employee.ID, requested, caller.UserID)
	if errors.Is(err, SalaryReview.ErrNoActiveCycle) {
		return ctx.JSON(fiber.Map{
			"active_cycle": false,
			"employee":     employee,
			"message":      "No active salary review cycle",
		})
	}
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"active_cycle": true,
		"employee":     employee,
		"review":       review,
	})
}

type assessmentsRequest struct {
	Assessments []SalaryReview.AssessmentInput `json:"assessments" validate:"required,min=1,dive"`
}

// SubmitAssessments stores criteria assessments for a review
func (c *SalaryReviewController) SubmitAssessments(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	reviewID, err := paramID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	var input assessmentsRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, err)
	}

	review, err := c.Workflow.Review(ctx.UserContext(), reviewID)
	if err != nil {
		return respondError(ctx, err)
	}
	if _, err := c.Workflow.Authorize(ctx.UserContext(), caller, review.EmployeeID); err != nil {
		return respondError(ctx, err)
	}

	review, err = c.Workflow.SubmitAssessments(ctx.UserContext(), reviewID, input.Assessments)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"success": true, "review": review})
}
