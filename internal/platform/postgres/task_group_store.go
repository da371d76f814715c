package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
	"github.com/daybookhq/daybook-api/internal/store"
)

// PostgresTaskGroupStore implements the store.TaskGroupStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskGroupStore creates a new PostgreSQL implementation of the
// TaskGroupStore interface.
func NewPostgresTaskGroupStore(db store.DBTX, logger *slog.Logger) *PostgresTaskGroupStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskGroupStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_group_store")),
	}
}

// Ensure PostgresTaskGroupStore implements store.TaskGroupStore interface
var _ store.TaskGroupStore = (*PostgresTaskGroupStore)(nil)

// Create implements store.TaskGroupStore.Create
func (s *PostgresTaskGroupStore) Create(ctx context.Context, group *domain.TaskGroup) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := group.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO task_groups (id, user_id, name, color, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		group.ID,
		group.UserID,
		group.Name,
		group.Color,
		group.Position,
		group.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, group.UserID)
		}
		log.Error("failed to create task group",
			slog.String("error", err.Error()),
			slog.String("group_id", group.ID.String()))
		return err
	}
	return nil
}

// GetByID implements store.TaskGroupStore.GetByID
// Returns store.ErrGroupNotFound if the group does not exist.
func (s *PostgresTaskGroupStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskGroup, error) {
	query := `
		SELECT id, user_id, name, color, position, created_at
		FROM task_groups WHERE id = $1
	`

	var group domain.TaskGroup
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.UserID,
		&group.Name,
		&group.Color,
		&group.Position,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// ListByUserID implements store.TaskGroupStore.ListByUserID
func (s *PostgresTaskGroupStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.TaskGroup, error) {
	query := `
		SELECT id, user_id, name, color, position, created_at
		FROM task_groups WHERE user_id = $1 ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var groups []*domain.TaskGroup
	for rows.Next() {
		var group domain.TaskGroup
		err := rows.Scan(
			&group.ID,
			&group.UserID,
			&group.Name,
			&group.Color,
			&group.Position,
			&group.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &group)
	}
	return groups, rows.Err()
}

// Update implements store.TaskGroupStore.Update
// Returns store.ErrGroupNotFound if the group does not exist.
func (s *PostgresTaskGroupStore) Update(ctx context.Context, group *domain.TaskGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE task_groups SET name = $2, color = $3, position = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, group.ID, group.Name, group.Color, group.Position)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrGroupNotFound
	}
	return nil
}

// Delete implements store.TaskGroupStore.Delete
// Returns store.ErrGroupNotFound if the group does not exist.
func (s *PostgresTaskGroupStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrGroupNotFound
	}
	return nil
}

// NextPosition implements store.TaskGroupStore.NextPosition
func (s *PostgresTaskGroupStore) NextPosition(ctx context.Context, userID uuid.UUID) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM task_groups WHERE user_id = $1`,
		userID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// WithTx implements store.TaskGroupStore.WithTx
func (s *PostgresTaskGroupStore) WithTx(tx *sql.Tx) store.TaskGroupStore {
	return &PostgresTaskGroupStore{
		db:     tx,
		logger: s.logger,
	}
}
