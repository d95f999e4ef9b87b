package Controllers

import (
	"strings"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CommentController handles discussion on annual-cycle tasks
type CommentController struct {
	DB *gorm.DB
}

// NewCommentController creates a new CommentController
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{DB: db}
}

// GetComments lists a task's comments, oldest first
func (c *CommentController) GetComments(ctx *fiber.Ctx) error {
	taskID, err := paramID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	comments := []Models.TaskComment{}
	result := c.DB.WithContext(ctx.UserContext()).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&comments)
	if result.Error != nil {
		return respondError(ctx, AppErrors.Storage(result.Error))
	}
	return ctx.JSON(fiber.Map{"comments": comments})
}

type commentRequest struct {
	Content string `json:"content"`
}

// CreateComment adds a comment by the caller
func (c *CommentController) CreateComment(ctx *fiber.Ctx) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	taskID, err := paramID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	var input commentRequest
	if err := ctx.BodyParser(&input); err != nil {
		return respondError(ctx, AppErrors.Validation("", "Invalid request body"))
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return respondError(ctx, AppErrors.Validation("content", "Content is required"))
	}

	var task Models.RecurringTask
	if err := c.DB.WithContext(ctx.UserContext()).First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(ctx, AppErrors.NotFound("task", taskID))
		}
		return respondError(ctx, AppErrors.Storage(err))
	}

	comment := Models.TaskComment{
		TaskID:  taskID,
		UserID:  caller.UserID,
		Content: content,
	}
	if err := c.DB.WithContext(ctx.UserContext()).Create(&comment).Error; err != nil {
		return respondError(ctx, AppErrors.Storage(err))
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}
