// Command server runs the Daybook task API: the HTTP surface, the schema
// migrations and the background reminder dispatcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
	"github.com/daybookhq/daybook-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch migrateCmd {
	case "up":
		defer func() { _ = db.Close() }()
		return postgres.MigrateUp(ctx, db)
	case "status":
		defer func() { _ = db.Close() }()
		return postgres.MigrateStatus(ctx, db)
	case "":
		// Fall through to server startup.
	default:
		_ = db.Close()
		return fmt.Errorf("unknown migration command %q", migrateCmd)
	}

	// The schema is applied on startup so a fresh environment needs no
	// separate migration step.
	if err := postgres.MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	taskStore := postgres.NewPostgresTaskStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)
	groupStore := postgres.NewPostgresTaskGroupStore(db, log)

	app, err := newApplication(ctx, cfg, log, db, taskStore, userStore, groupStore)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("wire application: %w", err)
	}

	app.dispatcher.Start(ctx)

	return app.startHTTPServer(ctx, app.setupRouter())
}
