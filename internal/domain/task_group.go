package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskGroup-specific validation errors
var (
	// ErrGroupIDEmpty is returned when a group ID is empty or nil.
	ErrGroupIDEmpty = errors.New("task group ID cannot be empty")

	// ErrGroupUserIDEmpty is returned when a group's user ID is empty or nil.
	ErrGroupUserIDEmpty = errors.New("task group user ID cannot be empty")

	// ErrGroupNameEmpty is returned when a group's name is empty.
	ErrGroupNameEmpty = errors.New("task group name cannot be empty")
)

// TaskGroup is a user-owned grouping of tasks. Positions are monotonically
// ascending per user; a new group takes max(existing)+1. Gap-free numbering
// is not required. Deleting a group clears the group reference on member
// tasks but never deletes the tasks themselves.
type TaskGroup struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskGroup creates a new TaskGroup at the given position.
// Returns an error if validation fails.
func NewTaskGroup(userID uuid.UUID, name, color string, position int) (*TaskGroup, error) {
	group := &TaskGroup{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	return group, nil
}

// Validate checks if the TaskGroup has valid data.
func (g *TaskGroup) Validate() error {
	if g.ID == uuid.Nil {
		return ErrGroupIDEmpty
	}

	if g.UserID == uuid.Nil {
		return ErrGroupUserIDEmpty
	}

	if g.Name == "" {
		return ErrGroupNameEmpty
	}

	return nil
}
