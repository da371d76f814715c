package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
)

// TaskPayload is the request body for creating and updating tasks. Absent
// optional fields decode to nil or zero values; the merge rules in the
// domain layer decide what absence means on update.
type TaskPayload struct {
	GroupID     *uuid.UUID      `json:"group_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`

	DueDate        *time.Time `json:"due_date"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	StartDate      *time.Time `json:"start_date"`
	CompletedAt    *time.Time `json:"completed_at"`

	Tags        []string            `json:"tags"`
	Attachments []domain.Attachment `json:"attachments"`
	Reminders   []time.Time         `json:"reminders"`
	Subtasks    []domain.Subtask    `json:"subtasks"`
	Comments    []domain.Comment    `json:"comments"`

	NotificationSent bool `json:"notification_sent"`
	AllDay           bool `json:"all_day"`
	Recurring        bool `json:"recurring"`
}

// ToDomain converts the payload into a domain task. The ID and owner are
// assigned by the caller.
func (p *TaskPayload) ToDomain() *domain.Task {
	return &domain.Task{
		GroupID:          p.GroupID,
		Title:            p.Title,
		Description:      p.Description,
		Priority:         p.Priority,
		Status:           p.Status,
		DueDate:          p.DueDate,
		ScheduledStart:   p.ScheduledStart,
		StartDate:        p.StartDate,
		CompletedAt:      p.CompletedAt,
		Tags:             p.Tags,
		Attachments:      p.Attachments,
		Reminders:        p.Reminders,
		Subtasks:         p.Subtasks,
		Comments:         p.Comments,
		NotificationSent: p.NotificationSent,
		AllDay:           p.AllDay,
		Recurring:        p.Recurring,
	}
}

// StartTaskRequest is the optional body for the start endpoint. A missing
// body or start date means "now".
type StartTaskRequest struct {
	StartDate *time.Time `json:"start_date"`
}

// CreateGroupRequest is the request body for creating a task group.
type CreateGroupRequest struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Color string `json:"color" validate:"max=32"`
}

// UpdateGroupRequest is the request body for updating a task group. Empty
// fields are left unchanged.
type UpdateGroupRequest struct {
	Name     string `json:"name"     validate:"max=255"`
	Color    string `json:"color"    validate:"max=32"`
	Position int    `json:"position" validate:"gte=0"`
}

// RelatedTasksResponse is the response body of the related tasks endpoint.
type RelatedTasksResponse struct {
	TaskID  uuid.UUID     `json:"task_id"`
	Related []RelatedItem `json:"related"`
}

// RelatedItem pairs a task with its similarity score.
type RelatedItem struct {
	Task  *domain.Task `json:"task"`
	Score float64      `json:"score"`
}
