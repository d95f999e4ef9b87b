// Package AnnualCycle places recurring tasks on the calendar and records
// their completion per year for a station or a single user.
package AnnualCycle

import (
	"context"
	"time"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeriveTertial maps a month to its third of the year. Months above 8,
// including out-of-range values, land in tertial 3.
func DeriveTertial(month int) int {
	if month <= 4 {
		return 1
	}
	if month <= 8 {
		return 2
	}
	return 3
}

// TargetKind tells which column a completion is keyed on.
type TargetKind int

const (
	StationTarget TargetKind = iota + 1
	UserTarget
)

// CompletionTarget is either a station or a user, never both.
type CompletionTarget struct {
	Kind TargetKind
	ID   uint
}

func Station(id uint) CompletionTarget { return CompletionTarget{Kind: StationTarget, ID: id} }

func User(id uint) CompletionTarget { return CompletionTarget{Kind: UserTarget, ID: id} }

func (t CompletionTarget) String() string {
	switch t.Kind {
	case StationTarget:
		return "station"
	case UserTarget:
		return "user"
	}
	return "unknown"
}

// conflictColumns is the unique key the upsert resolves against.
func (t CompletionTarget) conflictColumns() []clause.Column {
	switch t.Kind {
	case StationTarget:
		return []clause.Column{{Name: "task_id"}, {Name: "station_id"}, {Name: "year"}}
	default:
		return []clause.Column{{Name: "task_id"}, {Name: "user_id"}, {Name: "year"}}
	}
}

// scope narrows a completion query to the target's column.
func (t CompletionTarget) scope(db *gorm.DB) *gorm.DB {
	switch t.Kind {
	case StationTarget:
		return db.Where("station_id = ?", t.ID)
	default:
		return db.Where("user_id = ? AND station_id IS NULL", t.ID)
	}
}

type ItemFilter struct {
	Month *int
}

type CompletionInput struct {
	ItemID    uint
	Year      int
	Status    string
	StationID *uint
}

type Tracker struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now}
}

// ListItems returns task definitions ordered by month; month-less tasks
// sort by the store's NULL ordering.
func (t *Tracker) ListItems(ctx context.Context, filter ItemFilter) ([]Models.RecurringTask, error) {
	items := []Models.RecurringTask{}
	query := t.DB.WithContext(ctx).Model(&Models.RecurringTask{})
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if err := query.Order("month ASC").Find(&items).Error; err != nil {
		return nil, AppErrors.Storage(err)
	}
	return items, nil
}

// ResolveTarget picks where a completion lands: the explicit station, else
// the caller's first station membership, else the caller personally.
func (t *Tracker) ResolveTarget(ctx context.Context, caller Models.Caller, explicitStationID *uint) (CompletionTarget, error) {
	if explicitStationID != nil {
		return Station(*explicitStationID), nil
	}

	var links []Models.UserStationLink
	err := t.DB.WithContext(ctx).
		Where("user_id = ?", caller.UserID).
		Order("id ASC").
		Limit(1).
		Find(&links).Error
	if err != nil {
		return CompletionTarget{}, AppErrors.Storage(err)
	}
	// TODO: confirm with product which station wins for users linked to several.
	if len(links) > 0 {
		return Station(links[0].StationID), nil
	}
	return User(caller.UserID), nil
}

// RecordCompletion upserts the completion for the resolved target and
// returns the stored row.
func (t *Tracker) RecordCompletion(ctx context.Context, caller Models.Caller, input CompletionInput) (Models.TaskCompletion, error) {
	if input.ItemID == 0 || input.Year == 0 {
		return Models.TaskCompletion{}, AppErrors.Validation("", "itemId and year are required")
	}

	target, err := t.ResolveTarget(ctx, caller, input.StationID)
	if err != nil {
		return Models.TaskCompletion{}, err
	}

	status := input.Status
	if status == "" {
		status = Models.StatusCompleted
	}
	now := t.Now()

	record := Models.TaskCompletion{
		TaskID:      input.ItemID,
		Year:        input.Year,
		Status:      status,
		CompletedBy: caller.UserID,
		CompletedAt: now,
	}
	switch target.Kind {
	case StationTarget:
		record.StationID = &target.ID
	case UserTarget:
		record.UserID = &target.ID
	default:
		return Models.TaskCompletion{}, errors.Errorf("unresolved completion target %v", target)
	}

	err = t.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   target.conflictColumns(),
		DoUpdates: clause.AssignmentColumns([]string{"status", "completed_by", "completed_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return Models.TaskCompletion{}, AppErrors.Storage(err)
	}

	return t.findCompletion(ctx, input.ItemID, input.Year, target)
}

// ListCompletions returns a target's completions for a year.
func (t *Tracker) ListCompletions(ctx context.Context, year int, target CompletionTarget) ([]Models.TaskCompletion, error) {
	completions := []Models.TaskCompletion{}
	err := target.scope(t.DB.WithContext(ctx)).
		Where("year = ?", year).
		Order("task_id ASC").
		Find(&completions).Error
	if err != nil {
		return nil, AppErrors.Storage(err)
	}
	return completions, nil
}

func (t *Tracker) findCompletion(ctx context.Context, taskID uint, year int, target CompletionTarget) (Models.TaskCompletion, error) {
	var record Models.TaskCompletion
	err := target.scope(t.DB.WithContext(ctx)).
		Where("task_id = ? AND year = ?", taskID, year).
		First(&record).Error
	if err != nil {
		return Models.TaskCompletion{}, AppErrors.Storage(err)
	}
	return record, nil
}
