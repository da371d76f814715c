package notify

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/store"
)

// fakeTaskStore implements the TaskStore surface the dispatcher touches.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	findErr error
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) put(task *domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[task.ID] = &copied
}

func (f *fakeTaskStore) get(id uuid.UUID) *domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *f.tasks[id]
	return &copied
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.put(task)
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.UserID == userID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindScheduledBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.UserID != userID || task.ScheduledStart == nil {
			continue
		}
		start := *task.ScheduledStart
		if start.Before(from) || start.After(to) {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeTaskStore) ClearGroup(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

// fakeUserStore implements the UserStore surface the dispatcher touches.
type fakeUserStore struct {
	users   []*domain.User
	listErr error
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(_ context.Context, _ *domain.User) error { return nil }

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]*domain.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeUserStore) Update(_ context.Context, _ *domain.User) error { return nil }
func (f *fakeUserStore) Delete(_ context.Context, _ uuid.UUID) error    { return nil }
func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore               { return f }

// recordingSender records every delivered push and optionally fails.
type recordingSender struct {
	mu    sync.Mutex
	sends []sentPush
	err   error
}

type sentPush struct {
	token string
	title string
	body  string
}

func (r *recordingSender) Send(_ context.Context, token, title, body string) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, sentPush{token: token, title: title, body: body})
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

func testNotifierConfig() config.NotifierConfig {
	return config.NotifierConfig{
		IntervalSeconds:    60,
		LeadTimeMinutes:    15,
		WindowSlackMinutes: 1,
		CooldownMinutes:    15,
	}
}

func newDispatcherFixture(t *testing.T) (*Dispatcher, *fakeTaskStore, *fakeUserStore, *recordingSender, time.Time) {
	t.Helper()

	tasks := newFakeTaskStore()
	users := &fakeUserStore{}
	sender := &recordingSender{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(testNotifierConfig(), tasks, users, sender, log)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	d.timeFunc = func() time.Time { return now }

	return d, tasks, users, sender, now
}

func scheduledTask(userID uuid.UUID, title string, start time.Time) *domain.Task {
	now := start.Add(-time.Hour)
	return &domain.Task{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Status:         domain.StatusPending,
		ScheduledStart: &start,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestDispatcher_RunOnce(t *testing.T) {
	t.Parallel()

	t.Run("sends a reminder for a task inside the window", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}
		task := scheduledTask(user.ID, "Standup", now.Add(15*time.Minute))
		tasks.put(task)

		d.RunOnce(context.Background())

		require.Equal(t, 1, sender.count())
		assert.Equal(t, "tok1", sender.sends[0].token)
		assert.Equal(t, "Standup", sender.sends[0].title)
		assert.Equal(t, "Starting in 15 minutes", sender.sends[0].body)
		assert.True(t, tasks.get(task.ID).NotificationSent, "flag persisted after send")
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}
		tasks.put(scheduledTask(user.ID, "Lower edge", now.Add(14*time.Minute)))
		tasks.put(scheduledTask(user.ID, "Upper edge", now.Add(16*time.Minute)))

		d.RunOnce(context.Background())
		assert.Equal(t, 2, sender.count())
	})

	t.Run("ignores tasks outside the window", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}
		tasks.put(scheduledTask(user.ID, "Too soon", now.Add(10*time.Minute)))
		tasks.put(scheduledTask(user.ID, "Too late", now.Add(30*time.Minute)))
		tasks.put(scheduledTask(user.ID, "Already past", now.Add(-5*time.Minute)))

		d.RunOnce(context.Background())
		assert.Zero(t, sender.count())
	})

	t.Run("a second run does not re-send", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}
		tasks.put(scheduledTask(user.ID, "Standup", now.Add(15*time.Minute)))

		d.RunOnce(context.Background())
		d.RunOnce(context.Background())

		assert.Equal(t, 1, sender.count())
	})

	t.Run("skips tasks already notified or completed", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}

		notified := scheduledTask(user.ID, "Notified", now.Add(15*time.Minute))
		notified.NotificationSent = true
		tasks.put(notified)

		done := scheduledTask(user.ID, "Done", now.Add(15*time.Minute))
		done.Status = domain.StatusCompleted
		tasks.put(done)

		d.RunOnce(context.Background())
		assert.Zero(t, sender.count())
	})

	t.Run("skips users without a push token", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com"}
		users.users = []*domain.User{user}
		tasks.put(scheduledTask(user.ID, "Standup", now.Add(15*time.Minute)))

		d.RunOnce(context.Background())
		assert.Zero(t, sender.count())
	})

	t.Run("transport failure leaves the task eligible for retry", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		user := &domain.User{ID: uuid.New(), Email: "u@example.com", PushToken: "tok1"}
		users.users = []*domain.User{user}
		task := scheduledTask(user.ID, "Standup", now.Add(15*time.Minute))
		tasks.put(task)

		sender.err = errors.New("fcm unavailable")
		d.RunOnce(context.Background())

		assert.Zero(t, sender.count())
		assert.False(t, tasks.get(task.ID).NotificationSent,
			"flag stays false after a failed send")

		// Transport recovers; the very next run delivers.
		sender.err = nil
		d.RunOnce(context.Background())
		assert.Equal(t, 1, sender.count())
		assert.True(t, tasks.get(task.ID).NotificationSent)
	})

	t.Run("one user's failure does not block others", func(t *testing.T) {
		t.Parallel()
		d, tasks, users, sender, now := newDispatcherFixture(t)

		broken := &domain.User{ID: uuid.New(), Email: "a@example.com", PushToken: "tokA"}
		healthy := &domain.User{ID: uuid.New(), Email: "b@example.com", PushToken: "tokB"}
		users.users = []*domain.User{broken, healthy}

		tasks.put(scheduledTask(healthy.ID, "Healthy task", now.Add(15*time.Minute)))
		d.tasks = &failingUserQueryStore{fakeTaskStore: tasks, failFor: broken.ID}

		d.RunOnce(context.Background())
		assert.Equal(t, 1, sender.count(), "healthy user still served")
	})
}

// failingUserQueryStore fails FindScheduledBetween for a single user.
type failingUserQueryStore struct {
	*fakeTaskStore
	failFor uuid.UUID
}

func (f *failingUserQueryStore) FindScheduledBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	if userID == f.failFor {
		return nil, errors.New("query timeout")
	}
	return f.fakeTaskStore.FindScheduledBetween(ctx, userID, from, to)
}

func TestDispatcher_StartStop(t *testing.T) {
	t.Parallel()

	d, _, _, _, _ := newDispatcherFixture(t)
	d.interval = 10 * time.Millisecond

	d.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	d.Stop()
}

func TestCooldownGate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("second acquire within the period loses", func(t *testing.T) {
		t.Parallel()
		gate := NewCooldownGate(15 * time.Minute)

		assert.True(t, gate.TryAcquire("u-t", now))
		assert.False(t, gate.TryAcquire("u-t", now.Add(time.Minute)))
	})

	t.Run("expired stamps are replaced", func(t *testing.T) {
		t.Parallel()
		gate := NewCooldownGate(15 * time.Minute)

		assert.True(t, gate.TryAcquire("u-t", now))
		assert.True(t, gate.TryAcquire("u-t", now.Add(15*time.Minute)))
	})

	t.Run("release reopens the slot", func(t *testing.T) {
		t.Parallel()
		gate := NewCooldownGate(15 * time.Minute)

		assert.True(t, gate.TryAcquire("u-t", now))
		gate.Release("u-t")
		assert.True(t, gate.TryAcquire("u-t", now.Add(time.Second)))
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		gate := NewCooldownGate(15 * time.Minute)

		assert.True(t, gate.TryAcquire("u-a", now))
		assert.True(t, gate.TryAcquire("u-b", now))
	})

	t.Run("sweep drops only expired stamps", func(t *testing.T) {
		t.Parallel()
		gate := NewCooldownGate(15 * time.Minute)

		require.True(t, gate.TryAcquire("old", now))
		require.True(t, gate.TryAcquire("fresh", now.Add(14*time.Minute)))

		gate.Sweep(now.Add(15 * time.Minute))

		assert.True(t, gate.TryAcquire("old", now.Add(15*time.Minute)))
		assert.False(t, gate.TryAcquire("fresh", now.Add(15*time.Minute)))
	})
}
