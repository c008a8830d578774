package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"mentalist/internal/model"
)

// ErrNotInFuture is returned when a task is planned for today or earlier.
var ErrNotInFuture = errors.New("planned date must be after today")

// ScheduledGroup is the set of tasks planned for one date.
type ScheduledGroup struct {
	Date  string
	Tasks []model.Task
}

// SplitScheduled separates tasks without a planned date from planned ones. Planned tasks
// are grouped by date in ascending order and keep their relative order inside a group.
func SplitScheduled(tasks []model.Task) ([]model.Task, []ScheduledGroup) {
	var (
		unscheduled []model.Task
		groups      []ScheduledGroup
	)
	index := make(map[string]int)
	for _, task := range tasks {
		if task.ScheduledDate == "" {
			unscheduled = append(unscheduled, task)
			continue
		}
		i, ok := index[task.ScheduledDate]
		if !ok {
			i = len(groups)
			index[task.ScheduledDate] = i
			groups = append(groups, ScheduledGroup{Date: task.ScheduledDate})
		}
		groups[i].Tasks = append(groups[i].Tasks, task)
	}
	slices.SortStableFunc(groups, func(a, b ScheduledGroup) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return unscheduled, groups
}

// HumanDate renders YYYY-MM-DD as "21st March, 2026". Unparseable input is returned as is.
func HumanDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d%s %s, %d", t.Day(), ordinalSuffix(t.Day()), t.Month(), t.Year())
}

func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	}
	return "th"
}

// PlanAhead creates a task planned for a future date in categoryID, or in the active
// list when categoryID is empty.
func (p *Planner) PlanAhead(_ context.Context, title, categoryID, date string) (model.Task, error) {
	date, err := ParseDate(date)
	if err != nil {
		return model.Task{}, err
	}
	if date <= p.Today() {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotInFuture, date)
	}
	if categoryID == "" {
		categoryID = p.Categories.Active()
	}
	return p.Tasks.Create(title, categoryID, date), nil
}
