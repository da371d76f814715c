package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
	"github.com/daybookhq/daybook-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, user_id, group_id, title, description, priority, status,
	created_at, updated_at, due_date, scheduled_start, start_date, completed_at,
	duration_ns, calendar_event_id, tags, attachments, reminders,
	notification_sent, all_day, recurring`

// Create implements store.TaskStore.Create
// It saves a new task with its subtasks and comments.
// Returns store.ErrInvalidEntity if the owning user doesn't exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, attachments, reminders, err := marshalTaskCollections(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		uuidPtrToNull(task.GroupID),
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		task.CreatedAt,
		task.UpdatedAt,
		timePtrToNull(task.DueDate),
		timePtrToNull(task.ScheduledStart),
		timePtrToNull(task.StartDate),
		timePtrToNull(task.CompletedAt),
		durationPtrToNull(task.Duration),
		task.CalendarEventID,
		tags,
		attachments,
		reminders,
		task.NotificationSent,
		task.AllDay,
		task.Recurring,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if err := s.insertChildren(ctx, task); err != nil {
		return err
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.loadChildren(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update implements store.TaskStore.Update
// It persists the complete task state; the stored subtask and comment sets
// are replaced by the task's current collections.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	tags, attachments, reminders, err := marshalTaskCollections(task)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks SET
			group_id = $2, title = $3, description = $4, priority = $5,
			status = $6, updated_at = $7, due_date = $8, scheduled_start = $9,
			start_date = $10, completed_at = $11, duration_ns = $12,
			calendar_event_id = $13, tags = $14, attachments = $15,
			reminders = $16, notification_sent = $17, all_day = $18,
			recurring = $19
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		uuidPtrToNull(task.GroupID),
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		task.UpdatedAt,
		timePtrToNull(task.DueDate),
		timePtrToNull(task.ScheduledStart),
		timePtrToNull(task.StartDate),
		timePtrToNull(task.CompletedAt),
		durationPtrToNull(task.Duration),
		task.CalendarEventID,
		tags,
		attachments,
		reminders,
		task.NotificationSent,
		task.AllDay,
		task.Recurring,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	// Children are replaced wholesale; the merge engine already decided
	// which ones survive.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_comments WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	return s.insertChildren(ctx, task)
}

// Delete implements store.TaskStore.Delete
// Subtasks and comments cascade via their foreign keys.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// ListByUserID implements store.TaskStore.ListByUserID
func (s *PostgresTaskStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at`
	return s.queryTasks(ctx, query, userID)
}

// FindScheduledBetween implements store.TaskStore.FindScheduledBetween
// Both bounds are inclusive.
func (s *PostgresTaskStore) FindScheduledBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1
		  AND scheduled_start IS NOT NULL
		  AND scheduled_start >= $2
		  AND scheduled_start <= $3
		ORDER BY scheduled_start
	`
	return s.queryTasks(ctx, query, userID, from, to)
}

// ClearGroup implements store.TaskStore.ClearGroup
func (s *PostgresTaskStore) ClearGroup(ctx context.Context, groupID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET group_id = NULL WHERE group_id = $1`, groupID)
	if err != nil {
		s.logger.Error("failed to clear group references",
			slog.String("error", err.Error()),
			slog.String("group_id", groupID.String()))
	}
	return err
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresTaskStore) scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		groupID     uuid.NullUUID
		priority    string
		status      string
		dueDate     sql.NullTime
		scheduled   sql.NullTime
		startDate   sql.NullTime
		completedAt sql.NullTime
		durationNS  sql.NullInt64
		tags        []byte
		attachments []byte
		reminders   []byte
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&groupID,
		&task.Title,
		&task.Description,
		&priority,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
		&dueDate,
		&scheduled,
		&startDate,
		&completedAt,
		&durationNS,
		&task.CalendarEventID,
		&tags,
		&attachments,
		&reminders,
		&task.NotificationSent,
		&task.AllDay,
		&task.Recurring,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	if groupID.Valid {
		id := groupID.UUID
		task.GroupID = &id
	}
	task.DueDate = nullToTimePtr(dueDate)
	task.ScheduledStart = nullToTimePtr(scheduled)
	task.StartDate = nullToTimePtr(startDate)
	task.CompletedAt = nullToTimePtr(completedAt)
	if durationNS.Valid {
		d := time.Duration(durationNS.Int64)
		task.Duration = &d
	}

	if err := unmarshalTaskCollections(&task, tags, attachments, reminders); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if err := s.loadChildren(ctx, task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *PostgresTaskStore) insertChildren(ctx context.Context, task *domain.Task) error {
	for _, st := range task.Subtasks {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO subtasks (id, task_id, title, completed, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			st.ID, task.ID, st.Title, st.Completed, createdAtOrNow(st.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert subtask: %w", err)
		}
	}

	for _, c := range task.Comments {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO task_comments (id, task_id, body, created_at)
			VALUES ($1, $2, $3, $4)`,
			c.ID, task.ID, c.Body, createdAtOrNow(c.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
	}
	return nil
}

func (s *PostgresTaskStore) loadChildren(ctx context.Context, task *domain.Task) error {
	subRows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, title, completed, created_at
		FROM subtasks WHERE task_id = $1 ORDER BY created_at`, task.ID)
	if err != nil {
		return err
	}
	defer func() { _ = subRows.Close() }()

	for subRows.Next() {
		var st domain.Subtask
		if err := subRows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.CreatedAt); err != nil {
			return err
		}
		task.Subtasks = append(task.Subtasks, st)
	}
	if err := subRows.Err(); err != nil {
		return err
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, body, created_at
		FROM task_comments WHERE task_id = $1 ORDER BY created_at`, task.ID)
	if err != nil {
		return err
	}
	defer func() { _ = commentRows.Close() }()

	for commentRows.Next() {
		var c domain.Comment
		if err := commentRows.Scan(&c.ID, &c.TaskID, &c.Body, &c.CreatedAt); err != nil {
			return err
		}
		task.Comments = append(task.Comments, c)
	}
	return commentRows.Err()
}

// marshalTaskCollections serializes the jsonb-backed collections.
func marshalTaskCollections(task *domain.Task) (tags, attachments, reminders []byte, err error) {
	if tags, err = json.Marshal(task.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if attachments, err = json.Marshal(task.Attachments); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}
	if reminders, err = json.Marshal(task.Reminders); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal reminders: %w", err)
	}
	return tags, attachments, reminders, nil
}

func unmarshalTaskCollections(task *domain.Task, tags, attachments, reminders []byte) error {
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &task.Tags); err != nil {
			return fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &task.Attachments); err != nil {
			return fmt.Errorf("failed to unmarshal attachments: %w", err)
		}
	}
	if len(reminders) > 0 {
		if err := json.Unmarshal(reminders, &task.Reminders); err != nil {
			return fmt.Errorf("failed to unmarshal reminders: %w", err)
		}
	}
	return nil
}

func uuidPtrToNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullToTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	// Timestamps are stored and compared in UTC.
	utc := t.Time.UTC()
	return &utc
}

func durationPtrToNull(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
