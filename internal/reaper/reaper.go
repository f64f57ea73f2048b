package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// ErrAlreadyRunning is returned by RunOnce when a sweep is in flight.
var ErrAlreadyRunning = errors.New("reaper sweep already running")

// Config holds configuration for the stale-task reaper.
type Config struct {
	// Interval determines how often a sweep runs.
	Interval time.Duration

	// StaleAfter defines how long a task may sit in-progress before it is
	// considered abandoned and force-completed.
	StaleAfter time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   15 * time.Minute,
		StaleAfter: 2 * time.Hour,
	}
}

// Reaper periodically closes tasks that have been in-progress for longer
// than StaleAfter, transitioning them to done. Closures go through the same
// status transition rules as user-initiated changes, so StartedAt survives
// and CompletedAt is stamped with the sweep time.
type Reaper struct {
	taskStore  store.TaskStore
	config     Config
	logger     *slog.Logger
	now        func() time.Time
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	sweepMu    sync.Mutex
}

// New creates a Reaper. The now function may be nil, in which case the
// wall clock is used; tests inject a fake clock.
func New(taskStore store.TaskStore, config Config, logger *slog.Logger, now func() time.Time) *Reaper {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultConfig().StaleAfter
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Reaper{
		taskStore:  taskStore,
		config:     config,
		logger:     logger.With(slog.String("component", "reaper")),
		now:        now,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the periodic sweep loop. The first sweep runs after one
// full interval, not immediately, so startup is not delayed by a scan.
func (r *Reaper) Start() {
	r.wg.Add(1)
	go r.loop()

	r.logger.Info("reaper started",
		slog.Duration("interval", r.config.Interval),
		slog.Duration("stale_after", r.config.StaleAfter))
}

// Stop shuts the sweep loop down and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("reaper stopped")
}

func (r *Reaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(r.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				r.logger.Error("reaper sweep failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single sweep and returns how many tasks were closed.
// Sweeps never overlap: a call while another sweep is in flight returns
// ErrAlreadyRunning. One task failing to close does not abort the sweep.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	if !r.sweepMu.TryLock() {
		return 0, ErrAlreadyRunning
	}
	defer r.sweepMu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.config.StaleAfter)

	stale, err := r.taskStore.FindStaleInProgress(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale tasks: %w", err)
	}
	if len(stale) == 0 {
		r.logger.Debug("reaper sweep found nothing to close")
		return 0, nil
	}

	closed := 0
	for i := range stale {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		if err := r.closeTask(ctx, stale[i].ID, cutoff, now); err != nil {
			r.logger.Error("failed to close stale task",
				slog.String("task_id", stale[i].ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		closed++
		r.logger.Info("closed stale task",
			slog.String("task_id", stale[i].ID.String()),
			slog.String("owner_id", stale[i].OwnerID.String()))
	}

	r.logger.Info("reaper sweep finished",
		slog.Int("candidates", len(stale)),
		slog.Int("closed", closed))
	return closed, nil
}

// closeTask re-reads the task inside a transaction and completes it only if
// it is still stale, so a user moving the task concurrently wins.
func (r *Reaper) closeTask(ctx context.Context, taskID uuid.UUID, cutoff, now time.Time) error {
	return store.RunInTransaction(ctx, r.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := r.taskStore.WithTx(tx)

		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return nil
			}
			return err
		}
		if task.Status != domain.StatusInProgress ||
			task.StartedAt == nil ||
			!task.StartedAt.Before(cutoff) {
			return nil
		}

		next := domain.ApplyStatusTransition(*task, domain.StatusDone, now)
		return tasks.Update(ctx, &next)
	})
}
