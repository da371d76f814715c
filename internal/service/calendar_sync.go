package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
)

// CalendarEvent carries the task fields that are mirrored onto the external
// calendar event. Start and End are instants in UTC; for all-day events the
// provider renders them as whole dates.
type CalendarEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// CalendarAPI abstracts the external calendar provider. Implementations
// authenticate with the user's stored credential on every call; no token
// state is held between calls.
type CalendarAPI interface {
	// CreateEvent inserts a new event and returns the provider's event ID.
	CreateEvent(ctx context.Context, cred domain.CalendarCredential, event CalendarEvent) (string, error)

	// UpdateEvent overwrites an existing event identified by eventID.
	UpdateEvent(ctx context.Context, cred domain.CalendarCredential, eventID string, event CalendarEvent) error

	// DeleteEvent removes the event identified by eventID.
	DeleteEvent(ctx context.Context, cred domain.CalendarCredential, eventID string) error
}

// CalendarSync mirrors task writes to the user's external calendar. All
// provider failures are logged and swallowed: a calendar outage must never
// fail the task operation that triggered the sync.
type CalendarSync struct {
	api    CalendarAPI
	logger *slog.Logger
}

// NewCalendarSync creates a CalendarSync backed by the given provider.
// Panics if api or logger is nil, as this indicates a programming error.
func NewCalendarSync(api CalendarAPI, logger *slog.Logger) *CalendarSync {
	if api == nil {
		panic("calendar API cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CalendarSync{
		api:    api,
		logger: logger.With(slog.String("component", "calendar_sync")),
	}
}

// Sync pushes the task to the user's calendar. On a successful create the
// provider's event ID is written back onto the task; the caller is
// responsible for persisting it. Tasks without both a scheduled start and a
// due date are skipped, as are users who have sync disabled or no stored
// credential.
func (s *CalendarSync) Sync(ctx context.Context, task *domain.Task, user *domain.User, isUpdate bool) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !user.CanSyncCalendar() {
		log.Debug("calendar sync skipped, user not syncable",
			slog.String("user_id", user.ID.String()))
		return
	}
	if task.ScheduledStart == nil || task.DueDate == nil {
		log.Debug("calendar sync skipped, task not scheduled",
			slog.String("task_id", task.ID.String()))
		return
	}

	event := CalendarEvent{
		Title:       task.Title,
		Description: task.Description,
		Start:       *task.ScheduledStart,
		End:         *task.DueDate,
		AllDay:      task.AllDay,
	}

	if isUpdate && task.CalendarEventID != "" {
		if err := s.api.UpdateEvent(ctx, *user.Calendar, task.CalendarEventID, event); err != nil {
			log.Warn("calendar event update failed",
				slog.String("task_id", task.ID.String()),
				slog.String("event_id", task.CalendarEventID),
				slog.String("error", err.Error()))
		}
		return
	}

	eventID, err := s.api.CreateEvent(ctx, *user.Calendar, event)
	if err != nil {
		log.Warn("calendar event creation failed",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	task.CalendarEventID = eventID
}

// Unsync removes the task's mirrored event from the user's calendar and
// clears the stored event ID on success. Failures are logged and swallowed;
// a stale event on the provider side is acceptable, a failed local delete is
// not.
func (s *CalendarSync) Unsync(ctx context.Context, task *domain.Task, user *domain.User) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task.CalendarEventID == "" || !user.CanSyncCalendar() {
		return
	}

	if err := s.api.DeleteEvent(ctx, *user.Calendar, task.CalendarEventID); err != nil {
		log.Warn("calendar event deletion failed",
			slog.String("task_id", task.ID.String()),
			slog.String("event_id", task.CalendarEventID),
			slog.String("error", err.Error()))
		return
	}
	task.CalendarEventID = ""
}
