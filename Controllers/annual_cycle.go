package Controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Barrelito/sam-a-sub001/AnnualCycle"
	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/gofiber/fiber/v2"
)

// AnnualCycleController serves the Årshjul items and their completions
type AnnualCycleController struct {
	Tracker *AnnualCycle.Tracker
}

// NewAnnualCycleController creates a new AnnualCycleController
func NewAnnualCycleController(tracker *AnnualCycle.Tracker) *AnnualCycleController {
	return &AnnualCycleController{Tracker: tracker}
}

// GetItems lists task definitions, optionally for one month
func (c *AnnualCycleController) GetItems(ctx *fiber.Ctx) error {
	var filter AnnualCycle.ItemFilter
	if raw := ctx.Query("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(ctx, AppErrors.Validation("month", "must be an integer"))
		}
		filter.Month = &month
	}

	items, err := c.Tracker.ListItems(ctx.UserContext(), filter)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"items": items})
}

type completionRequest struct {
	ItemID    uint   `json:"itemId" validate:"required"`
	StationID *uint  `json:"stationId"`
	Year      int    `json:"year" validate:"required"`
	Status    string `json:"status"`
}

// CreateCompletion records a task as addressed for a year
func (c *AnnualCycleController) CreateCompletion(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	var input completionRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, err)
	}

	completion, err := c.Tracker.RecordCompletion(ctx.UserContext(), caller, AnnualCycle.CompletionInput{
		ItemID:    input.ItemID,
		Year:      input.Year,
		Status:    input.Status,
		StationID: input.StationID,
	})
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success":    true,
		"completion": completion,
	})
}

// target resolves ?stationId= the same way completions are recorded
func (c *AnnualCycleController) target(ctx *fiber.Ctx) (AnnualCycle.CompletionTarget, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return AnnualCycle.CompletionTarget{}, err
	}
	stationID, err := optionalUint(ctx, "stationId")
	if err != nil {
		return AnnualCycle.CompletionTarget{}, err
	}
	return c.Tracker.ResolveTarget(ctx.UserContext(), caller, stationID)
}

// GetCompletions lists the resolved target's completions for a year
func (c *AnnualCycleController) GetCompletions(ctx *fiber.Ctx) error {
	year, err := queryYear(ctx, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}
	target, err := c.target(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	completions, err := c.Tracker.ListCompletions(ctx.UserContext(), year, target)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"year":        year,
		"target":      fiber.Map{"type": target.String(), "id": target.ID},
		"completions": completions,
	})
}

// GetOverview groups the year's tasks by tertial
func (c *AnnualCycleController) GetOverview(ctx *fiber.Ctx) error {
	year, err := queryYear(ctx, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}
	target, err := c.target(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	tertials, err := c.Tracker.Overview(ctx.UserContext(), year, target)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"year":     year,
		"target":   fiber.Map{"type": target.String(), "id": target.ID},
		"tertials": tertials,
	})
}

// Export returns the overview as an xlsx workbook
func (c *AnnualCycleController) Export(ctx *fiber.Ctx) error {
	year, err := queryYear(ctx, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}
	target, err := c.target(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	data, err := c.Tracker.ExportXLSX(ctx.UserContext(), year, target)
	if err != nil {
		return respondError(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="arshjul-%d.xlsx"`, year))
	return ctx.Send(data)
}
