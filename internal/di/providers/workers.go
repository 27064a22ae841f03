package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/logger"
	"github.com/clipclash/clipclash-server/internal/service"
)

// RecomputeWorker runs periodic score recomputes for active challenges.
type RecomputeWorker struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (w *RecomputeWorker) Shutdown() error {
	w.cancel()
	return nil
}

// ProvideRecomputeWorker provides the background recompute loop.
func ProvideRecomputeWorker(i do.Injector) (*RecomputeWorker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	recompute := do.MustInvoke[*service.RecomputeService](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.Ranking.RecomputeInterval)
		defer ticker.Stop()

		// Initial pass on startup so restarts converge quickly
		if err := recompute.RecomputeAll(ctx); err != nil {
			log.Warn("Initial recompute pass failed", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if err := recompute.RecomputeAll(ctx); err != nil {
					log.Warn("Recompute pass failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Recompute worker started", "interval", cfg.Ranking.RecomputeInterval)

	return &RecomputeWorker{cancel: cancel}, nil
}
