package FiberConfig

import (
	"context"
	"errors"

	"github.com/Barrelito/sam-a-sub001/AnnualCycle"
	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/Barrelito/sam-a-sub001/Controllers"
	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/SalaryReview"
	"github.com/Barrelito/sam-a-sub001/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

// NewApp builds the HTTP application with every route registered.
func NewApp(cfg Config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(middleware.RequestLogger(cfg.LogFile, cfg.LogRequestBody))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Service-Key",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, cfg, db)
	return app
}

func SetupRoutes(app *fiber.App, cfg Config.Config, db *gorm.DB) {
	auth := middleware.NewAuth(db, cfg.JWTSecret)
	authController := Controllers.NewAuthController(db, auth)
	annualCycleController := Controllers.NewAnnualCycleController(AnnualCycle.NewTracker(db))
	commentController := Controllers.NewCommentController(db)
	organizationController := Controllers.NewOrganizationController(db)
	salaryReviewController := Controllers.NewSalaryReviewController(SalaryReview.NewWorkflow(db))
	budgetController := Controllers.NewBudgetController(db)
	logController := Controllers.NewLogController(cfg.LogFile)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Service credentials, no per-user check
	app.Get("/admin/stations", middleware.ServiceKey(cfg.ServiceAPIKey), organizationController.AdminStations)

	app.Post("/api/Login", authController.Login)
	app.Post("/api/Logout", authController.Logout)
	app.Get("/api/User", auth.Verify(Models.RoleEmployee), authController.User)
	app.Post("/api/RegisterUser", auth.Verify(Models.RoleAdmin), authController.RegisterUser)

	api := app.Group("/api", auth.Verify(Models.RoleEmployee))

	// Annual cycle
	api.Get("/items", annualCycleController.GetItems)
	api.Get("/completions", annualCycleController.GetCompletions)
	api.Post("/completions", annualCycleController.CreateCompletion)
	api.Get("/annual-cycle/overview", annualCycleController.GetOverview)
	api.Get("/annual-cycle/export", annualCycleController.Export)
	api.Get("/tasks/:id/comments", commentController.GetComments)
	api.Post("/tasks/:id/comments", commentController.CreateComment)

	// Organization
	api.Get("/stations", organizationController.GetStations)
	api.Get("/org-units", organizationController.GetOrgUnits)

	// Salary review
	salary := api.Group("/salary-review")
	salary.Get("/cycles/active", salaryReviewController.GetActiveCycle)
	salary.Get("/criteria", salaryReviewController.GetCriteria)
	salary.Get("/employees/:id/review", auth.Verify(Models.RoleStationManager), salaryReviewController.GetEmployeeReview)
	salary.Post("/reviews/:id/assessments", auth.Verify(Models.RoleStationManager), salaryReviewController.SubmitAssessments)

	// Budget
	budget := api.Group("/budget", auth.Verify(Models.RoleVOChief))
	budget.Get("/", budgetController.GetBudget)
	budget.Post("/", budgetController.UpsertBudget)
	budget.Get("/summary", budgetController.Summary)

	// Request logs
	logs := api.Group("/admin/logs", auth.Verify(Models.RoleAdmin))
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
}

// Serve listens on cfg.HTTPAddr and shuts down when ctx is cancelled.
func Serve(ctx context.Context, cfg Config.Config, db *gorm.DB) error {
	app := NewApp(cfg, db)
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			Logging.GetLogger().WithError(err).Error("server shutdown")
		}
	}()

	Logging.GetLogger().WithField("addr", cfg.HTTPAddr).Info("Server Up...")
	return app.Listen(cfg.HTTPAddr)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		Logging.GetLogger().WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
