package AnnualCycle

import (
	"context"

	"github.com/Barrelito/sam-a-sub001/Models"
)

type OverviewItem struct {
	Item       Models.RecurringTask   `json:"item"`
	Tertial    int                    `json:"tertial"`
	Completion *Models.TaskCompletion `json:"completion,omitempty"`
}

// TertialOverview holds one third of the year. Tertial 0 collects tasks
// without a month.
type TertialOverview struct {
	Tertial   int            `json:"tertial"`
	Items     []OverviewItem `json:"items"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
}

// Overview groups every task by tertial and attaches the target's
// completion for year, if any.
func (t *Tracker) Overview(ctx context.Context, year int, target CompletionTarget) ([]TertialOverview, error) {
	items, err := t.ListItems(ctx, ItemFilter{})
	if err != nil {
		return nil, err
	}
	completions, err := t.ListCompletions(ctx, year, target)
	if err != nil {
		return nil, err
	}

	byTask := make(map[uint]Models.TaskCompletion, len(completions))
	for _, c := range completions {
		byTask[c.TaskID] = c
	}

	groups := []TertialOverview{{Tertial: 0}, {Tertial: 1}, {Tertial: 2}, {Tertial: 3}}
	for _, item := range items {
		tertial := 0
		if item.Month != nil {
			tertial = DeriveTertial(*item.Month)
		}
		entry := OverviewItem{Item: item, Tertial: tertial}
		if c, ok := byTask[item.ID]; ok {
			c := c
			entry.Completion = &c
		}

		g := &groups[tertial]
		g.Items = append(g.Items, entry)
		g.Total++
		if entry.Completion != nil && IsFinished(entry.Completion.Status) {
			g.Completed++
		}
	}

	// drop the month-less bucket when nothing is in it
	if groups[0].Total == 0 {
		groups = groups[1:]
	}
	return groups, nil
}

// IsFinished reports whether a completion status closes the task.
func IsFinished(status string) bool {
	return status == Models.StatusCompleted || status == Models.StatusDone
}
