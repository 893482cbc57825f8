package flush

import (
	"context"
	"log/slog"
	"time"
)

const shutdownDrainTimeout = 10 * time.Second

// Scheduler runs one coordinator's flush pass on a fixed interval.
// A pass always runs to completion before the next tick is consumed, so a
// category never has overlapping passes; the three category schedulers run
// as independent goroutines and may overlap each other freely.
type Scheduler struct {
	interval time.Duration
	coord    *Coordinator
}

// NewScheduler creates a periodic runner for one category coordinator.
func NewScheduler(interval time.Duration, coord *Coordinator) *Scheduler {
	return &Scheduler{
		interval: interval,
		coord:    coord,
	}
}

// Start begins the periodic flush loop. Runs until the context is cancelled.
// A failing pass is logged and never stops the loop — the next tick runs
// independently.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[FlushScheduler] Starting",
		"category", s.coord.Category(),
		"interval", s.interval,
	)

	// Initial pass to catch up with any backlog accumulated before boot.
	s.runPass(ctx)

	for {
		select {
		case <-ticker.C:
			s.runPass(ctx)
		case <-ctx.Done():
			slog.Info("[FlushScheduler] Stopping (context cancelled)", "category", s.coord.Category())

			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
			defer cancel()

			s.runPass(drainCtx)
			slog.Info("[FlushScheduler] Final drain complete", "category", s.coord.Category())
			return nil
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	if err := s.coord.Run(ctx); err != nil {
		slog.Error("[FlushScheduler] Pass failed",
			"category", s.coord.Category(),
			"error", err,
		)
	}
}
