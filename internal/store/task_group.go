package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
)

// TaskGroupStore defines the interface for task group persistence.
type TaskGroupStore interface {
	// Create saves a new task group.
	Create(ctx context.Context, group *domain.TaskGroup) error

	// GetByID retrieves a group by its unique ID.
	// Returns ErrGroupNotFound if the group does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskGroup, error)

	// ListByUserID returns the user's groups ordered by position.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.TaskGroup, error)

	// Update modifies an existing group.
	// Returns ErrGroupNotFound if the group does not exist.
	Update(ctx context.Context, group *domain.TaskGroup) error

	// Delete removes a group by its ID. Member tasks are not touched;
	// callers clear their group references first (see TaskStore.ClearGroup).
	Delete(ctx context.Context, id uuid.UUID) error

	// NextPosition returns max(existing positions for the user) + 1,
	// or 1 when the user has no groups yet.
	NextPosition(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a new TaskGroupStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskGroupStore
}
