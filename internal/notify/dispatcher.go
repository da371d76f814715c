package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/store"
)

// PushSender abstracts the push notification transport. Implementations
// deliver a single message to a single device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Dispatcher periodically scans every user's tasks and pushes a reminder for
// tasks whose scheduled start falls inside the upcoming lead-time window.
// A reminder is sent at most once per scheduled occurrence: a persistent
// per-task flag survives restarts and an in-memory cooldown gate covers the
// gap before that flag is written.
type Dispatcher struct {
	tasks  store.TaskStore
	users  store.UserStore
	sender PushSender
	gate   *CooldownGate
	logger *slog.Logger

	interval time.Duration
	lead     time.Duration
	slack    time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// timeFunc allows injecting a fixed clock in tests.
	timeFunc func() time.Time
}

// NewDispatcher creates a dispatcher from the notifier configuration.
// Panics if any dependency is nil, as this indicates a programming error.
func NewDispatcher(
	cfg config.NotifierConfig,
	tasks store.TaskStore,
	users store.UserStore,
	sender PushSender,
	log *slog.Logger,
) *Dispatcher {
	if tasks == nil {
		panic("taskStore cannot be nil")
	}
	if users == nil {
		panic("userStore cannot be nil")
	}
	if sender == nil {
		panic("push sender cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}

	return &Dispatcher{
		tasks:    tasks,
		users:    users,
		sender:   sender,
		gate:     NewCooldownGate(time.Duration(cfg.CooldownMinutes) * time.Minute),
		logger:   log.With(slog.String("component", "notify_dispatcher")),
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		lead:     time.Duration(cfg.LeadTimeMinutes) * time.Minute,
		slack:    time.Duration(cfg.WindowSlackMinutes) * time.Minute,
		timeFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the background scan loop. The loop runs until Stop is
// called or the parent context is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		d.logger.Info("reminder dispatcher started",
			slog.Duration("interval", d.interval),
			slog.Duration("lead_time", d.lead))

		for {
			select {
			case <-ctx.Done():
				d.logger.Info("reminder dispatcher stopped")
				return
			case <-ticker.C:
				d.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the scan loop and waits for the in-flight run to finish.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// RunOnce performs a single scan over all users. A failure for one user is
// logged and never blocks the remaining users.
func (d *Dispatcher) RunOnce(ctx context.Context) {
	now := d.timeFunc().UTC()
	from := now.Add(d.lead - d.slack)
	to := now.Add(d.lead + d.slack)

	d.gate.Sweep(now)

	users, err := d.users.List(ctx)
	if err != nil {
		d.logger.Error("user scan failed",
			slog.String("error", err.Error()))
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		if err := d.runUser(ctx, user, now, from, to); err != nil {
			d.logger.Error("reminder scan failed for user",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (d *Dispatcher) runUser(ctx context.Context, user *domain.User, now, from, to time.Time) error {
	if user.PushToken == "" {
		return nil
	}

	tasks, err := d.tasks.FindScheduledBetween(ctx, user.ID, from, to)
	if err != nil {
		return fmt.Errorf("query scheduled tasks: %w", err)
	}

	for _, task := range tasks {
		if task.NotificationSent || task.IsCompleted() {
			continue
		}

		key := cooldownKey(user, task)
		if !d.gate.TryAcquire(key, now) {
			continue
		}

		body := fmt.Sprintf("Starting in %d minutes", int(d.lead.Minutes()))
		if err := d.sender.Send(ctx, user.PushToken, task.Title, body); err != nil {
			// The flag stays false and the cooldown slot is released, so
			// the next scan retries while the task is still in the window.
			d.gate.Release(key)
			d.logger.Warn("push delivery failed",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		task.NotificationSent = true
		if err := d.tasks.Update(ctx, task); err != nil {
			// The send went out but the flag write failed. The cooldown
			// stamp stays, so the occurrence is not re-sent until the
			// stamp expires; by then the task has left the window.
			d.logger.Error("failed to persist notification flag",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		d.logger.Info("reminder sent",
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", user.ID.String()),
			slog.Time("scheduled_start", *task.ScheduledStart))
	}
	return nil
}

func cooldownKey(user *domain.User, task *domain.Task) string {
	return user.ID.String() + "-" + task.ID.String()
}
