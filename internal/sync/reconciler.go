package sync

import (
	"context"
	gosync "sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler refreshes the conversation list on a fixed interval, which also
// re-acknowledges the open conversation when the server still counts it as
// unread.
type Reconciler struct {
	engine   *Engine
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	wg       gosync.WaitGroup
}

// NewReconciler creates a reconciler. A non-positive interval disables it.
func NewReconciler(e *Engine, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{engine: e, interval: interval, logger: orNop(logger)}
}

// Start begins the refresh loop.
func (r *Reconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	r.logger.Info("reconciler started", zap.Duration("interval", r.interval))
}

// Stop stops the loop and waits for it to exit.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.engine.RefreshConversations(ctx); err != nil {
				r.logger.Debug("reconcile refresh failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
