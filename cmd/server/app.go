package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/notify"
	"github.com/daybookhq/daybook-api/internal/platform/fcm"
	"github.com/daybookhq/daybook-api/internal/platform/gemini"
	"github.com/daybookhq/daybook-api/internal/platform/googlecal"
	"github.com/daybookhq/daybook-api/internal/recommend"
	"github.com/daybookhq/daybook-api/internal/service"
	"github.com/daybookhq/daybook-api/internal/service/auth"
	"github.com/daybookhq/daybook-api/internal/store"
)

// application holds the wired dependencies of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore  store.TaskStore
	userStore  store.UserStore
	groupStore store.TaskGroupStore

	jwtService   auth.JWTService
	taskService  service.TaskService
	groupService service.TaskGroupService
	dispatcher   *notify.Dispatcher
	ranker       *recommend.Scorer
}

// newApplication wires the application graph from configuration and an open
// database handle. Optional integrations (push, recommendations) degrade to
// no-ops when unconfigured instead of failing startup.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	db *sql.DB,
	taskStore store.TaskStore,
	userStore store.UserStore,
	groupStore store.TaskGroupStore,
) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, err
	}

	calendarSync := service.NewCalendarSync(
		googlecal.NewClient(cfg.Calendar.CalendarID, log), log)

	taskService := service.NewTaskService(taskStore, userStore, calendarSync, db, log)
	groupService := service.NewTaskGroupService(groupStore, taskStore, db, log)

	var sender notify.PushSender = fcm.NopSender{}
	if cfg.Push.CredentialsFile != "" {
		fcmSender, err := fcm.NewSender(ctx, cfg.Push.CredentialsFile, log)
		if err != nil {
			return nil, err
		}
		sender = fcmSender
	} else {
		log.Warn("push credentials not configured, reminders will not be delivered")
	}
	dispatcher := notify.NewDispatcher(cfg.Notifier, taskStore, userStore, sender, log)

	var ranker *recommend.Scorer
	if cfg.Recommend.GeminiAPIKey != "" {
		embedder, err := gemini.NewEmbedder(ctx, cfg.Recommend, log)
		if err != nil {
			return nil, err
		}
		ranker = recommend.NewScorer(embedder, log)
	} else {
		log.Info("gemini API key not configured, related tasks endpoint disabled")
	}

	return &application{
		config:       cfg,
		logger:       log,
		db:           db,
		taskStore:    taskStore,
		userStore:    userStore,
		groupStore:   groupStore,
		jwtService:   jwtService,
		taskService:  taskService,
		groupService: groupService,
		dispatcher:   dispatcher,
		ranker:       ranker,
	}, nil
}

// cleanup releases process-wide resources during shutdown.
func (app *application) cleanup() {
	app.dispatcher.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
