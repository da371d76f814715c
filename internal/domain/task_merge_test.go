package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existingTask(t *testing.T) *Task {
	t.Helper()

	task, err := NewTask(uuid.New(), "write report")
	require.NoError(t, err)

	task.Description = "quarterly numbers"
	task.Priority = PriorityHigh
	task.CalendarEventID = "cal-event-42"
	task.Tags = []string{"work"}
	return task
}

func TestApplyUpdate_FieldTable(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	t.Run("title description and allDay are overwritten unconditionally", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		task.ApplyUpdate(&Task{Title: "", Description: "", AllDay: true}, now)

		assert.Equal(t, "", task.Title)
		assert.Equal(t, "", task.Description)
		assert.True(t, task.AllDay)
	})

	t.Run("absent priority and status leave stored values unchanged", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		task.ApplyUpdate(&Task{Title: "new title", Status: StatusCompleted}, now)

		assert.Equal(t, PriorityHigh, task.Priority, "empty priority means leave unchanged")
		assert.Equal(t, StatusCompleted, task.Status)
	})

	t.Run("present timestamps are normalized to UTC on the way in", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		loc := time.FixedZone("UTC+2", 2*60*60)
		due := time.Date(2025, 7, 3, 18, 0, 0, 0, loc)

		task.ApplyUpdate(&Task{Title: "t", DueDate: &due}, now)

		require.NotNil(t, task.DueDate)
		assert.Equal(t, time.UTC, task.DueDate.Location())
		assert.True(t, task.DueDate.Equal(due))
	})

	t.Run("absent timestamps leave stored values unchanged", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		due := time.Date(2025, 7, 3, 18, 0, 0, 0, time.UTC)
		task.DueDate = &due

		task.ApplyUpdate(&Task{Title: "t"}, now)

		require.NotNil(t, task.DueDate)
		assert.True(t, task.DueDate.Equal(due))
	})

	t.Run("calendar event ID is never client-overridable", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		task.ApplyUpdate(&Task{Title: "t", CalendarEventID: "attacker-controlled"}, now)

		assert.Equal(t, "cal-event-42", task.CalendarEventID)
	})

	t.Run("collections are overwritten from the incoming value", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		reminder := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)

		task.ApplyUpdate(&Task{
			Title:       "t",
			Tags:        []string{"home", "urgent"},
			Attachments: []Attachment{{Name: "spec", URL: "https://example.com/spec"}},
			Reminders:   []time.Time{reminder},
			Recurring:   true,
		}, now)

		assert.Equal(t, []string{"home", "urgent"}, task.Tags)
		assert.Len(t, task.Attachments, 1)
		assert.Len(t, task.Reminders, 1)
		assert.True(t, task.Recurring)
	})

	t.Run("lastModified is set once after all other date logic", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		task.ApplyUpdate(&Task{Title: "t"}, now)

		assert.Equal(t, now, task.UpdatedAt)
	})

	t.Run("duration recomputed when both boundary timestamps present", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		start := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		done := time.Date(2025, 7, 1, 11, 30, 0, 0, time.UTC)

		task.ApplyUpdate(&Task{Title: "t", StartDate: &start, CompletedAt: &done}, now)

		require.NotNil(t, task.Duration)
		assert.Equal(t, 150*time.Minute, *task.Duration)
	})

	t.Run("duration left as stored when a boundary timestamp is missing", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		stored := 45 * time.Minute
		task.Duration = &stored

		task.ApplyUpdate(&Task{Title: "t"}, now)

		require.NotNil(t, task.Duration)
		assert.Equal(t, stored, *task.Duration)
	})
}

func TestApplyUpdate_NullSkipScenario(t *testing.T) {
	t.Parallel()

	// Update with absent priority while status is Completed: title and
	// description get overwritten, priority stays, status flips.
	task := existingTask(t)
	now := time.Now().UTC()

	task.ApplyUpdate(&Task{
		Title:       "updated title",
		Description: "updated description",
		Status:      StatusCompleted,
	}, now)

	assert.Equal(t, "updated title", task.Title)
	assert.Equal(t, "updated description", task.Description)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestApplyUpdate_ScheduledStartChangeResetsNotification(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("new instant clears the sent flag", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		old := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
		task.ScheduledStart = &old
		task.NotificationSent = true

		rescheduled := old.Add(2 * time.Hour)
		task.ApplyUpdate(&Task{
			Title:            "t",
			ScheduledStart:   &rescheduled,
			NotificationSent: true,
		}, now)

		assert.False(t, task.NotificationSent, "a reschedule is a new occurrence")
	})

	t.Run("same instant in another zone keeps the client value", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		old := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
		task.ScheduledStart = &old
		task.NotificationSent = true

		sameInstant := old.In(time.FixedZone("UTC+3", 3*60*60))
		task.ApplyUpdate(&Task{
			Title:            "t",
			ScheduledStart:   &sameInstant,
			NotificationSent: true,
		}, now)

		assert.True(t, task.NotificationSent)
	})
}

func TestApplyUpdate_ChildReconciliation(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("subtasks removed, kept and appended", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		kept := Subtask{ID: uuid.New(), TaskID: task.ID, Title: "kept", Completed: true}
		removed := Subtask{ID: uuid.New(), TaskID: task.ID, Title: "removed"}
		task.Subtasks = []Subtask{kept, removed}

		incoming := []Subtask{
			{ID: kept.ID, Title: "client copy of kept"},
			{Title: "brand new"},
		}
		task.ApplyUpdate(&Task{Title: "t", Subtasks: incoming}, now)

		require.Len(t, task.Subtasks, 2)
		assert.Equal(t, "kept", task.Subtasks[0].Title, "matching child keeps its stored version")
		assert.True(t, task.Subtasks[0].Completed)
		assert.Equal(t, "brand new", task.Subtasks[1].Title)
		assert.Equal(t, task.ID, task.Subtasks[1].TaskID, "appended subtask re-parented")
		assert.NotEqual(t, uuid.Nil, task.Subtasks[1].ID)
	})

	t.Run("comments follow the same set semantics", func(t *testing.T) {
		t.Parallel()

		task := existingTask(t)
		kept := Comment{ID: uuid.New(), TaskID: task.ID, Body: "first"}
		task.Comments = []Comment{kept, {ID: uuid.New(), Body: "dropped"}}

		task.ApplyUpdate(&Task{Title: "t", Comments: []Comment{
			{ID: kept.ID, Body: "edited client side"},
			{Body: "added"},
		}}, now)

		require.Len(t, task.Comments, 2)
		assert.Equal(t, "first", task.Comments[0].Body)
		assert.Equal(t, "added", task.Comments[1].Body)
	})
}
