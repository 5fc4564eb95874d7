package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/service/queue"
	"github.com/careflow/hospital-api/pkg/logger"
)

// StaleSweeper cancels reception entries nobody has touched within the
// stale window, typically patients who left without being seen. Cancelling
// through the queue service keeps the usual guards and notifications in
// the path, and the idle re-check means an entry claimed between the list
// and the cancel is left with its claimant.
type StaleSweeper struct {
	queueSvc      *queue.Service
	staleAfter    time.Duration
	sweepInterval time.Duration
	logger        *logger.Logger
}

func NewStaleSweeper(queueSvc *queue.Service, staleAfter, sweepInterval time.Duration, l *logger.Logger) *StaleSweeper {
	return &StaleSweeper{
		queueSvc:      queueSvc,
		staleAfter:    staleAfter,
		sweepInterval: sweepInterval,
		logger:        l,
	}
}

func (w *StaleSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.ZL.Info().
		Dur("stale_after", w.staleAfter).
		Dur("sweep_interval", w.sweepInterval).
		Msg("Stale sweeper started")

	for {
		select {
		case <-ctx.Done():
			w.logger.ZL.Info().Msg("Stale sweeper shutting down")
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.logger.ZL.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

func (w *StaleSweeper) sweep(ctx context.Context) error {
	admin := model.Actor{Role: model.StaffRoleAdmin}
	cutoff := time.Now().Add(-w.staleAfter)

	entries, err := w.queueSvc.List(ctx, admin, &model.QueueFilters{
		Stage:         model.StageReception,
		Status:        model.QueueStatusWaiting,
		UpdatedBefore: cutoff,
	})
	if err != nil {
		return fmt.Errorf("failed to list stale entries: %w", err)
	}

	var cancelled int
	for _, entry := range entries {
		reason := fmt.Sprintf("no activity since %s", entry.UpdatedAt.Format(time.RFC3339))
		applied, err := w.queueSvc.CancelIfIdle(ctx, entry.ID, reason, cutoff)
		if err != nil {
			w.logger.ZL.Warn().
				Err(err).
				Str("entry_id", entry.ID.String()).
				Msg("Failed to cancel stale entry")
			continue
		}
		if applied {
			cancelled++
		}
	}

	if cancelled > 0 {
		w.logger.ZL.Info().
			Int("cancelled", cancelled).
			Time("cutoff", cutoff).
			Msg("Cancelled stale queue entries")
	}
	return nil
}
