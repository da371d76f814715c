package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
)

// TaskStore defines the interface for task persistence. All user-facing
// queries are scoped by owning user ID; no operation here lets one user
// read another user's tasks.
type TaskStore interface {
	// Create saves a new task to the store, including its subtasks and
	// comments. Returns validation errors from the domain Task if data is
	// invalid and ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID with its child collections.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists the complete state of an existing task, reconciling
	// the stored subtask and comment sets against the given task's.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by its ID. Subtasks and comments cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUserID returns all tasks owned by the given user.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// FindScheduledBetween returns the user's tasks whose scheduled start
	// falls inside [from, to]. Both bounds are inclusive.
	FindScheduledBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error)

	// ClearGroup removes the group reference from every task pointing at
	// the given group. It never deletes the tasks themselves.
	ClearGroup(ctx context.Context, groupID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
