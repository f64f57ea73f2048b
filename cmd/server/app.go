package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/platform/postgres"
	"github.com/taskdeck/taskdeck-api/internal/reaper"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	userService service.UserService
	taskService service.TaskService
	jwtService  auth.JWTService

	reaper *reaper.Reaper
}

// initializeApp loads configuration and builds every application component,
// bottom-up: logging, database (with migrations applied), stores, services,
// handlers' dependencies and the background reaper.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"reaper_enabled", cfg.Reaper.Enabled)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	userStore := postgres.NewUserStore(db, appLogger)
	taskStore := postgres.NewTaskStore(db, appLogger)

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetimeMinutes)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	userService := service.NewUserService(
		userStore,
		db,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewBcryptVerifier(),
		appLogger,
	)
	taskService := service.NewTaskService(taskStore, userStore, appLogger, nil)

	taskReaper := reaper.New(taskStore, reaper.Config{
		Interval:   time.Duration(cfg.Reaper.IntervalMinutes) * time.Minute,
		StaleAfter: time.Duration(cfg.Reaper.StaleAfterHours) * time.Hour,
	}, appLogger, nil)

	return &application{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		userStore:   userStore,
		taskStore:   taskStore,
		userService: userService,
		taskService: taskService,
		jwtService:  jwtService,
		reaper:      taskReaper,
	}, nil
}

// run starts the background reaper (when enabled) and serves HTTP until
// shutdown.
func (app *application) run() error {
	if app.config.Reaper.Enabled {
		app.reaper.Start()
		defer app.reaper.Stop()
	}

	return app.startHTTPServer(app.setupRouter())
}

// cleanup releases resources owned by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
