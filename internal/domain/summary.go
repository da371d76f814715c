package domain

import "time"

// TaskSummary aggregates a user's task set at query time. There are no
// persisted counters; every value is derived in a single pass.
type TaskSummary struct {
	TotalTasks         int `json:"total_tasks"`
	TotalSubtasks      int `json:"total_subtasks"`
	OverdueTasks       int `json:"overdue_tasks"`
	CompletedThisMonth int `json:"completed_this_month"`
	DueThisMonth       int `json:"due_this_month"`
}

// SummarizeTasks computes the summary over tasks as of now:
// total task and subtask counts, tasks past due and not completed, tasks
// completed within the current calendar month (by due date), and tasks due
// within the current calendar month. The month boundary is taken in UTC.
func SummarizeTasks(tasks []*Task, now time.Time) TaskSummary {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var summary TaskSummary
	for _, t := range tasks {
		summary.TotalTasks++
		summary.TotalSubtasks += len(t.Subtasks)

		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.UTC()

		if due.Before(now) && !t.IsCompleted() {
			summary.OverdueTasks++
		}

		inMonth := !due.Before(monthStart) && due.Before(monthEnd)
		if inMonth {
			summary.DueThisMonth++
			if t.IsCompleted() {
				summary.CompletedThisMonth++
			}
		}
	}
	return summary
}
