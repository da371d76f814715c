package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApplyUpdate merges a partial client update onto the persisted task t,
// following an explicit field-by-field table rather than generic copying so
// the merge contract stays auditable:
//
//   - Title, Description, AllDay: unconditionally overwritten.
//   - Priority, Status: overwritten only when the incoming value is present.
//   - DueDate, ScheduledStart, StartDate, CompletedAt: overwritten only when
//     present, normalized to UTC on the way in.
//   - Tags, Attachments, Reminders, Recurring, NotificationSent:
//     unconditionally overwritten.
//   - Subtasks, Comments: set-reconciled by ID; incoming subtasks that are
//     appended get re-parented to t.
//   - Duration: recomputed when CompletedAt and StartDate are both present
//     after the merge, otherwise left as stored.
//   - CalendarEventID: preserved from the pre-merge state; clients never
//     control this field.
//   - UpdatedAt: set to now in UTC, once, after all other date logic.
//
// A merge that lands a different ScheduledStart instant starts a new
// occurrence: NotificationSent is forced back to false regardless of what
// the client sent.
func (t *Task) ApplyUpdate(in *Task, now time.Time) {
	prevScheduled := t.ScheduledStart

	t.Title = in.Title
	t.Description = in.Description
	t.AllDay = in.AllDay

	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Status != "" {
		t.Status = in.Status
	}

	if in.DueDate != nil {
		t.DueDate = NormalizeUTC(in.DueDate)
	}
	if in.ScheduledStart != nil {
		t.ScheduledStart = NormalizeUTC(in.ScheduledStart)
	}
	if in.StartDate != nil {
		t.StartDate = NormalizeUTC(in.StartDate)
	}
	if in.CompletedAt != nil {
		t.CompletedAt = NormalizeUTC(in.CompletedAt)
	}

	t.Tags = in.Tags
	t.Attachments = in.Attachments
	t.Reminders = in.Reminders
	t.Recurring = in.Recurring
	t.NotificationSent = in.NotificationSent

	t.Subtasks = reconcileSubtasks(t.ID, t.Subtasks, in.Subtasks)
	t.Comments = reconcileComments(t.Comments, in.Comments)

	if scheduledStartChanged(prevScheduled, t.ScheduledStart) {
		t.NotificationSent = false
	}

	t.RecomputeDuration()

	t.UpdatedAt = now.UTC()
}

// scheduledStartChanged compares two scheduled-start values as instants.
func scheduledStartChanged(before, after *time.Time) bool {
	switch {
	case before == nil && after == nil:
		return false
	case before == nil || after == nil:
		return true
	default:
		return !before.Equal(*after)
	}
}

// reconcileSubtasks applies set semantics: existing subtasks missing from
// the incoming collection are dropped, matching ones keep their stored
// version, and new incoming ones are appended re-parented to taskID.
func reconcileSubtasks(taskID uuid.UUID, existing, incoming []Subtask) []Subtask {
	byID := make(map[uuid.UUID]Subtask, len(existing))
	for _, st := range existing {
		byID[st.ID] = st
	}

	result := make([]Subtask, 0, len(incoming))
	for _, st := range incoming {
		if kept, ok := byID[st.ID]; ok {
			result = append(result, kept)
			continue
		}
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
		st.TaskID = taskID
		result = append(result, st)
	}
	return result
}

// reconcileComments applies the same set semantics to comments.
func reconcileComments(existing, incoming []Comment) []Comment {
	byID := make(map[uuid.UUID]Comment, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	result := make([]Comment, 0, len(incoming))
	for _, c := range incoming {
		if kept, ok := byID[c.ID]; ok {
			result = append(result, kept)
			continue
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		result = append(result, c)
	}
	return result
}
