package Models

import (
	"time"

	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and migrates the schema.
func Connect(cfg Config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	default:
		dialector = sqlite.Open(cfg.DBDSN)
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(Logging.GetLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.DBDriver)
	}

	if err := Migrate(connection); err != nil {
		return nil, err
	}
	return connection, nil
}

// Migrate creates or updates every table, parents before children.
func Migrate(db *gorm.DB) error {
	// 1. Base data with no dependencies
	if err := db.AutoMigrate(
		&OrganizationalUnit{},
		&User{},
		&RecurringTask{},
		&SalaryCriterion{},
		&SalaryReviewCycle{},
	); err != nil {
		return errors.Wrap(err, "migrate base tables")
	}

	// 2. Rows that reference the base data
	if err := db.AutoMigrate(
		&Station{},
		&UserStationLink{},
		&Employee{},
		&BudgetAllocation{},
		&TaskComment{},
	); err != nil {
		return errors.Wrap(err, "migrate organization tables")
	}

	// 3. Per-period records
	if err := db.AutoMigrate(
		&TaskCompletion{},
		&SalaryReview{},
		&CriteriaAssessment{},
	); err != nil {
		return errors.Wrap(err, "migrate record tables")
	}
	return nil
}
