package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/store"
)

// mockTaskStore is a configurable in-memory TaskStore. Tests override the
// Fn fields they care about; unset fields fall back to the map-backed
// default behavior.
type mockTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	createFn func(ctx context.Context, task *domain.Task) error
	updateFn func(ctx context.Context, task *domain.Task) error
	deleteFn func(ctx context.Context, id uuid.UUID) error

	updateCalls int
}

var _ store.TaskStore = (*mockTaskStore)(nil)

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (m *mockTaskStore) put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *task
	m.tasks[task.ID] = &copied
}

func (m *mockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, task)
	}
	m.put(task)
	return nil
}

func (m *mockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (m *mockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()
	if m.updateFn != nil {
		return m.updateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, task := range m.tasks {
		if task.UserID == userID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTaskStore) FindScheduledBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, task := range m.tasks {
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

func (m *mockTaskStore) ClearGroup(_ context.Context, groupID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		if task.GroupID != nil && *task.GroupID == groupID {
			task.GroupID = nil
		}
	}
	return nil
}

func (m *mockTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return m }

// mockUserStore is a configurable in-memory UserStore.
type mockUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	getByIDFn func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

var _ store.UserStore = (*mockUserStore)(nil)

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserStore) put(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
}

func (m *mockUserStore) Create(_ context.Context, user *domain.User) error {
	m.put(user)
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserStore) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, user := range m.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockUserStore) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserStore) WithTx(_ *sql.Tx) store.UserStore { return m }

// mockGroupStore is a configurable in-memory TaskGroupStore.
type mockGroupStore struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*domain.TaskGroup
}

var _ store.TaskGroupStore = (*mockGroupStore)(nil)

func newMockGroupStore() *mockGroupStore {
	return &mockGroupStore{groups: make(map[uuid.UUID]*domain.TaskGroup)}
}

func (m *mockGroupStore) Create(_ context.Context, group *domain.TaskGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *group
	m.groups[group.ID] = &copied
	return nil
}

func (m *mockGroupStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[id]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

func (m *mockGroupStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*domain.TaskGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TaskGroup
	for _, group := range m.groups {
		if group.UserID == userID {
			copied := *group
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockGroupStore) Update(_ context.Context, group *domain.TaskGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; !ok {
		return store.ErrGroupNotFound
	}
	copied := *group
	m.groups[group.ID] = &copied
	return nil
}

func (m *mockGroupStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return store.ErrGroupNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *mockGroupStore) NextPosition(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, group := range m.groups {
		if group.UserID == userID && group.Position > max {
			max = group.Position
		}
	}
	return max + 1, nil
}

func (m *mockGroupStore) WithTx(_ *sql.Tx) store.TaskGroupStore { return m }

// mockCalendarAPI records provider calls and returns canned results.
type mockCalendarAPI struct {
	mu sync.Mutex

	createFn func(ctx context.Context, cred domain.CalendarCredential, event CalendarEvent) (string, error)
	updateFn func(ctx context.Context, cred domain.CalendarCredential, eventID string, event CalendarEvent) error
	deleteFn func(ctx context.Context, cred domain.CalendarCredential, eventID string) error

	createCalls int
	updateCalls int
	deleteCalls int
}

var _ CalendarAPI = (*mockCalendarAPI)(nil)

func (m *mockCalendarAPI) CreateEvent(ctx context.Context, cred domain.CalendarCredential, event CalendarEvent) (string, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, cred, event)
	}
	return "evt-" + uuid.NewString(), nil
}

func (m *mockCalendarAPI) UpdateEvent(ctx context.Context, cred domain.CalendarCredential, eventID string, event CalendarEvent) error {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()
	if m.updateFn != nil {
		return m.updateFn(ctx, cred, eventID, event)
	}
	return nil
}

func (m *mockCalendarAPI) DeleteEvent(ctx context.Context, cred domain.CalendarCredential, eventID string) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, cred, eventID)
	}
	return nil
}
