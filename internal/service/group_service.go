package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
	"github.com/daybookhq/daybook-api/internal/store"
)

// TaskGroupService defines operations over a user's task groups. Ownership
// is enforced the same way as for tasks.
type TaskGroupService interface {
	// Create persists a new group for the user, assigning it the next free
	// position in the user's ordering.
	Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.TaskGroup, error)

	// Get retrieves a single group owned by the user.
	Get(ctx context.Context, userID, groupID uuid.UUID) (*domain.TaskGroup, error)

	// ListByUser returns the user's groups ordered by position.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskGroup, error)

	// Update modifies the group's name, color and position.
	Update(ctx context.Context, userID uuid.UUID, group *domain.TaskGroup) (*domain.TaskGroup, error)

	// Delete removes the group. Member tasks survive: their group reference
	// is cleared before the group row goes away.
	Delete(ctx context.Context, userID, groupID uuid.UUID) error
}

type taskGroupServiceImpl struct {
	groupStore store.TaskGroupStore
	taskStore  store.TaskStore
	db         *sql.DB
	logger     *slog.Logger
}

// Ensure taskGroupServiceImpl implements TaskGroupService.
var _ TaskGroupService = (*taskGroupServiceImpl)(nil)

// NewTaskGroupService creates a new task group service. The db handle is
// used to run multi-store operations transactionally; it may be nil when the
// backing stores do not share a database, in which case those operations run
// sequentially.
// Panics if a required dependency is nil, as this indicates a programming error.
func NewTaskGroupService(
	groupStore store.TaskGroupStore,
	taskStore store.TaskStore,
	db *sql.DB,
	log *slog.Logger,
) TaskGroupService {
	if groupStore == nil {
		panic("groupStore cannot be nil")
	}
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}

	return &taskGroupServiceImpl{
		groupStore: groupStore,
		taskStore:  taskStore,
		db:         db,
		logger:     log.With(slog.String("component", "task_group_service")),
	}
}

func (s *taskGroupServiceImpl) Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.TaskGroup, error) {
	position, err := s.groupStore.NextPosition(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("create_group", "failed to compute group position", err)
	}

	group, err := domain.NewTaskGroup(userID, name, color, position)
	if err != nil {
		return nil, err
	}

	if err := s.groupStore.Create(ctx, group); err != nil {
		return nil, NewTaskServiceError("create_group", "failed to save group", err)
	}
	return group, nil
}

func (s *taskGroupServiceImpl) Get(ctx context.Context, userID, groupID uuid.UUID) (*domain.TaskGroup, error) {
	return s.getOwned(ctx, userID, groupID)
}

func (s *taskGroupServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskGroup, error) {
	groups, err := s.groupStore.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("list_groups", "failed to list groups", err)
	}
	return groups, nil
}

func (s *taskGroupServiceImpl) Update(ctx context.Context, userID uuid.UUID, group *domain.TaskGroup) (*domain.TaskGroup, error) {
	existing, err := s.getOwned(ctx, userID, group.ID)
	if err != nil {
		return nil, err
	}

	if group.Name != "" {
		existing.Name = group.Name
	}
	if group.Color != "" {
		existing.Color = group.Color
	}
	if group.Position > 0 {
		existing.Position = group.Position
	}

	if err := s.groupStore.Update(ctx, existing); err != nil {
		return nil, NewTaskServiceError("update_group", "failed to save group", err)
	}
	return existing, nil
}

func (s *taskGroupServiceImpl) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.getOwned(ctx, userID, groupID); err != nil {
		return err
	}

	if err := s.detachAndDelete(ctx, groupID); err != nil {
		return NewTaskServiceError("delete_group", "failed to delete group", err)
	}

	log.Debug("task group deleted",
		slog.String("group_id", groupID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// detachAndDelete clears the group reference on member tasks and removes the
// group row. The clear always happens first so the group is never removed
// while tasks still point at it; with a db handle both steps share one
// transaction.
func (s *taskGroupServiceImpl) detachAndDelete(ctx context.Context, groupID uuid.UUID) error {
	if s.db != nil {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			if err := s.taskStore.WithTx(tx).ClearGroup(ctx, groupID); err != nil {
				return err
			}
			return s.groupStore.WithTx(tx).Delete(ctx, groupID)
		})
	}

	if err := s.taskStore.ClearGroup(ctx, groupID); err != nil {
		return err
	}
	return s.groupStore.Delete(ctx, groupID)
}

func (s *taskGroupServiceImpl) getOwned(ctx context.Context, userID, groupID uuid.UUID) (*domain.TaskGroup, error) {
	group, err := s.groupStore.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, NewTaskServiceError("get_group", "failed to load group", err)
	}
	if group.UserID != userID {
		return nil, ErrNotOwned
	}
	return group, nil
}
