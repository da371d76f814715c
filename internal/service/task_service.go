package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
	"github.com/daybookhq/daybook-api/internal/store"
)

// TaskService defines operations over a user's tasks. Every operation takes
// the authenticated user's ID and rejects access to tasks owned by anyone
// else with ErrNotOwned. Calendar synchronization happens after the local
// write succeeds and never fails the operation.
type TaskService interface {
	// Create persists a new task for the user, normalizes its timestamps to
	// UTC and mirrors it to the user's calendar when sync is enabled.
	Create(ctx context.Context, userID uuid.UUID, task *domain.Task) (*domain.Task, error)

	// Get retrieves a single task owned by the user.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// ListByUser returns all tasks owned by the user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update merges the incoming partial state into the stored task and
	// persists the result. See domain.Task.ApplyUpdate for field semantics.
	Update(ctx context.Context, userID uuid.UUID, incoming *domain.Task) (*domain.Task, error)

	// Start moves the task into the In Progress state, stamping StartDate
	// with startAt (or the current time when nil) and defaulting an unset
	// priority to MEDIUM.
	Start(ctx context.Context, userID, taskID uuid.UUID, startAt *time.Time) (*domain.Task, error)

	// Complete moves the task into the Completed state, stamps CompletedAt
	// and recomputes the derived duration.
	Complete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Delete removes the task, unsyncing its calendar event first.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// Summary aggregates the user's tasks into dashboard counters.
	Summary(ctx context.Context, userID uuid.UUID) (domain.TaskSummary, error)
}

// taskServiceImpl implements TaskService over the persistence stores and the
// calendar sync adapter.
type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	calendar  *CalendarSync
	db        *sql.DB
	logger    *slog.Logger

	// timeFunc allows injecting a fixed clock in tests.
	timeFunc func() time.Time
}

// Ensure taskServiceImpl implements TaskService.
var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new task service. The db handle makes task writes
// transactional, covering the parent row and its child-set reconciliation in
// one commit; it may be nil, in which case writes go through the store as-is.
// Panics if a required dependency is nil, as this indicates a programming error.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	calendar *CalendarSync,
	db *sql.DB,
	log *slog.Logger,
) TaskService {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if calendar == nil {
		panic("calendar sync cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		calendar:  calendar,
		db:        db,
		logger:    log.With(slog.String("component", "task_service")),
		timeFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// persistCreate and persistUpdate route task writes through one transaction
// when a db handle is present. A task write spans the tasks row plus the
// subtask and comment child sets.
func (s *taskServiceImpl) persistCreate(ctx context.Context, task *domain.Task) error {
	if s.db != nil {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.taskStore.WithTx(tx).Create(ctx, task)
		})
	}
	return s.taskStore.Create(ctx, task)
}

func (s *taskServiceImpl) persistUpdate(ctx context.Context, task *domain.Task) error {
	if s.db != nil {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.taskStore.WithTx(tx).Update(ctx, task)
		})
	}
	return s.taskStore.Update(ctx, task)
}

func (s *taskServiceImpl) Create(ctx context.Context, userID uuid.UUID, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc()

	task.ID = uuid.New()
	task.UserID = userID
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	task.CalendarEventID = ""
	task.NotificationSent = false
	task.NormalizeTimestamps()
	task.RecomputeDuration()
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == uuid.Nil {
			task.Subtasks[i].ID = uuid.New()
		}
		task.Subtasks[i].TaskID = task.ID
	}
	for i := range task.Comments {
		if task.Comments[i].ID == uuid.Nil {
			task.Comments[i].ID = uuid.New()
		}
		task.Comments[i].TaskID = task.ID
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.persistCreate(ctx, task); err != nil {
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	s.syncAndPersistEventID(ctx, task, false)

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.getOwned(ctx, userID, taskID)
}

func (s *taskServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, userID uuid.UUID, incoming *domain.Task) (*domain.Task, error) {
	existing, err := s.getOwned(ctx, userID, incoming.ID)
	if err != nil {
		return nil, err
	}

	existing.ApplyUpdate(incoming, s.timeFunc())

	if err := existing.Validate(); err != nil {
		return nil, err
	}

	if err := s.persistUpdate(ctx, existing); err != nil {
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	s.syncAndPersistEventID(ctx, existing, true)

	return existing, nil
}

func (s *taskServiceImpl) Start(ctx context.Context, userID, taskID uuid.UUID, startAt *time.Time) (*domain.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.timeFunc()
	start := now
	if startAt != nil {
		start = startAt.UTC()
	}

	task.Status = domain.StatusInProgress
	task.StartDate = &start
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	task.UpdatedAt = now

	if err := s.persistUpdate(ctx, task); err != nil {
		return nil, NewTaskServiceError("start_task", "failed to save task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) Complete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.timeFunc()
	task.Status = domain.StatusCompleted
	task.CompletedAt = &now
	task.UpdatedAt = now
	task.RecomputeDuration()

	if err := s.persistUpdate(ctx, task); err != nil {
		return nil, NewTaskServiceError("complete_task", "failed to save task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return err
	}

	// Unsync before the local delete so the task's event ID is still
	// available. A provider failure leaves a stale event behind, which is
	// acceptable; the local delete proceeds regardless.
	if task.CalendarEventID != "" {
		if user, uerr := s.userStore.GetByID(ctx, task.UserID); uerr == nil {
			s.calendar.Unsync(ctx, task, user)
		} else {
			log.Warn("owner lookup failed before unsync",
				slog.String("task_id", taskID.String()),
				slog.String("error", uerr.Error()))
		}
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Debug("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

func (s *taskServiceImpl) Summary(ctx context.Context, userID uuid.UUID) (domain.TaskSummary, error) {
	tasks, err := s.taskStore.ListByUserID(ctx, userID)
	if err != nil {
		return domain.TaskSummary{}, NewTaskServiceError("task_summary", "failed to list tasks", err)
	}
	return domain.SummarizeTasks(tasks, s.timeFunc()), nil
}

// getOwned loads the task and enforces ownership.
func (s *taskServiceImpl) getOwned(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}
	if task.UserID != userID {
		return nil, ErrNotOwned
	}
	return task, nil
}

// syncAndPersistEventID mirrors the task to the owner's calendar and, when a
// new event ID was attached by the sync, persists it. Every failure on this
// path is logged and swallowed; the task write that triggered it has already
// committed.
func (s *taskServiceImpl) syncAndPersistEventID(ctx context.Context, task *domain.Task, isUpdate bool) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, task.UserID)
	if err != nil {
		log.Warn("owner lookup failed, skipping calendar sync",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return
	}

	before := task.CalendarEventID
	s.calendar.Sync(ctx, task, user, isUpdate)
	if task.CalendarEventID == before {
		return
	}

	if err := s.persistUpdate(ctx, task); err != nil {
		log.Warn("failed to persist calendar event id",
			slog.String("task_id", task.ID.String()),
			slog.String("event_id", task.CalendarEventID),
			slog.String("error", err.Error()))
	}
}
