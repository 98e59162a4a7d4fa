// Package scheduler runs the periodic inactivity pass: every tracked work
// is evaluated against the inactivity-triggered rules and any proposed
// transition is persisted.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/engine"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/store"
)

// DefaultInterval is how often the sweep runs when nothing else is
// configured.
const DefaultInterval = time.Hour

// Sweeper drives inactivity transitions. The engine stays pull-based and
// stateless; the sweeper is the scheduler collaborator that invokes it.
type Sweeper struct {
	store    store.Store
	manager  *engine.Manager
	interval time.Duration
}

// Result summarizes one sweep pass.
type Result struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
	Conflicts    int `json:"conflicts"`
}

// New creates a Sweeper. A non-positive interval falls back to
// DefaultInterval.
func New(st store.Store, manager *engine.Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:    st,
		manager:  manager,
		interval: interval,
	}
}

// Run sweeps on a ticker until the context is canceled. Individual sweep
// failures are logged, not fatal; the next tick retries.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("inactivity sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("inactivity sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				logger.Error("inactivity sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce reloads the effective configuration, evaluates every tracked
// work and persists the transitions. A version conflict on one work means
// someone else just updated it; the work is skipped and picked up next
// pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	var res Result

	if err := s.manager.Reload(ctx); err != nil {
		return res, fmt.Errorf("failed to reload settings: %w", err)
	}

	works, err := s.store.ListWorks(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list works: %w", err)
	}
	overlay := s.manager.Overlay()

	for _, work := range works {
		res.Scanned++

		decision := s.manager.Inactivity(*work)
		if decision == nil {
			continue
		}

		work.ReadingStatus = decision.ToStatus
		cleared := engine.ApplyRereadingAutoClear(work, decision.ToStatus, overlay)

		if err := s.store.UpdateWork(ctx, work); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				res.Conflicts++
				logger.Warn("skipping concurrently modified work", "work", work.ID)
				continue
			}
			return res, fmt.Errorf("failed to persist transition for work %s: %w", work.ID, err)
		}

		res.Transitioned++
		logger.Info("inactivity transition applied",
			"work", work.ID,
			"rule", decision.RuleID,
			"toStatus", decision.ToStatus,
			"rereadingCleared", cleared,
		)
	}

	return res, nil
}
