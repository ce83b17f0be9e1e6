package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor prunes idle sessions on a schedule so long-running bot processes
// do not accumulate state for users who stopped talking.
type Janitor struct {
	store   Store
	idleFor time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewJanitor(store Store, idleFor time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:   store,
		idleFor: idleFor,
		cron:    cron.New(),
		logger:  logger.With("module", "session-janitor"),
	}
}

// Start schedules pruning with the given cron spec, e.g. "@every 10m".
func (j *Janitor) Start(spec string) error {
	_, err := j.cron.AddFunc(spec, j.prune)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Session janitor started", "schedule", spec, "idle_for", j.idleFor)

	return nil
}

// Stop halts the schedule and waits for an in-flight prune to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Session janitor stopped")
}

func (j *Janitor) prune() {
	pruned, err := j.store.PruneIdle(context.Background(), j.idleFor)
	if err != nil {
		j.logger.Error("Session pruning failed", "error", err)

		return
	}

	if pruned > 0 {
		j.logger.Info("Pruned idle sessions", "count", pruned)
	}
}
