package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrInvalidPriority is returned when a task's priority is not one of
	// the known priority levels.
	ErrInvalidPriority = errors.New("invalid task priority")
)

// Priority is the importance level of a task. The empty string means the
// client did not supply a priority.
type Priority string

// Known priority levels.
const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// IsValid reports whether p is one of the known priority levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the lifecycle state of a task. The three canonical states are
// Pending, In Progress and Completed; any other non-empty string supplied by
// a client is accepted and persisted verbatim. Only StatusCompleted is
// treated specially by summary and overdue computations.
type Status string

// Canonical task states.
const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Attachment is a named link owned by a task.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Subtask is a child item of a task. Subtasks share their parent's lifetime:
// they are created and removed with it.
type Subtask struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Task represents a user-owned task whose timing fields are kept in UTC and,
// when the owner has calendar sync enabled, mirrored to an external calendar
// event identified by CalendarEventID.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority,omitempty"`
	Status      Status     `json:"status"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// Duration is derived: CompletedAt minus StartDate when both are set.
	Duration *time.Duration `json:"duration,omitempty"`

	// CalendarEventID links the task to its external calendar event.
	// Clients never control this field; it is attached by the sync layer
	// and cleared only on explicit unsync.
	CalendarEventID string `json:"calendar_event_id,omitempty"`

	Tags        []string     `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reminders   []time.Time  `json:"reminders,omitempty"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`

	// NotificationSent records that a reminder was handed to the push
	// transport for the current ScheduledStart value. A change of
	// ScheduledStart starts a new occurrence and resets it.
	NotificationSent bool `json:"notification_sent"`

	AllDay    bool `json:"all_day"`
	Recurring bool `json:"recurring"`
}

// NewTask creates a new Task owned by the given user. It generates a new
// UUID, puts the task into the Pending state and sets the creation/update
// timestamps in UTC. Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if t.Priority != "" && !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	return nil
}

// IsCompleted reports whether the task is in the Completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// NormalizeTimestamps converts every client-suppliable timestamp to UTC.
// Already-UTC and absent values pass through unchanged.
func (t *Task) NormalizeTimestamps() {
	t.DueDate = NormalizeUTC(t.DueDate)
	t.ScheduledStart = NormalizeUTC(t.ScheduledStart)
	t.StartDate = NormalizeUTC(t.StartDate)
	t.CompletedAt = NormalizeUTC(t.CompletedAt)
}

// RecomputeDuration refreshes the derived Duration field. The stored value
// is left untouched unless both CompletedAt and StartDate are present.
func (t *Task) RecomputeDuration() {
	if t.CompletedAt != nil && t.StartDate != nil {
		d := t.CompletedAt.Sub(*t.StartDate)
		t.Duration = &d
	}
}
