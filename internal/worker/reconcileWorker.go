package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reconciler refetches authoritative state and overwrites optimistic edits.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ReconcilerFunc adapts a plain function.
type ReconcilerFunc func(ctx context.Context) error

func (f ReconcilerFunc) Reconcile(ctx context.Context) error {
	return f(ctx)
}

type ReconcileWorker struct {
	interval    time.Duration
	reconcilers []Reconciler
	log         logrus.FieldLogger

	runs     atomic.Int64
	failures atomic.Int64
}

func NewReconcileWorker(interval time.Duration, log logrus.FieldLogger, reconcilers ...Reconciler) *ReconcileWorker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReconcileWorker{
		interval:    interval,
		reconcilers: reconcilers,
		log:         log.WithField("worker", "reconcile"),
	}
}

// Start blocks until ctx is done. A failed pass is logged and the next tick
// runs as usual.
func (w *ReconcileWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Warn("Reconcile worker disabled: non-positive interval")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("Reconcile worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reconcile worker stopped")
			return
		case <-ticker.C:
			_ = w.RunOnce(ctx)
		}
	}
}

// RunOnce reconciles every registered screen concurrently and returns the
// joined failures.
func (w *ReconcileWorker) RunOnce(ctx context.Context) error {
	start := time.Now()
	w.runs.Add(1)

	errs := make([]error, len(w.reconcilers))
	var g errgroup.Group
	for i, r := range w.reconcilers {
		g.Go(func() error {
			// Проверяем, не был ли контекст отменен
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := r.Reconcile(ctx); err != nil {
				errs[i] = fmt.Errorf("reconciler %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	w.failures.Add(int64(failed))

	log := w.log.WithFields(logrus.Fields{
		"reconcilers": len(w.reconcilers),
		"failed":      failed,
		"duration":    time.Since(start).String(),
	})
	if err != nil {
		log.WithError(err).Warn("Reconcile pass finished with failures")
		return err
	}
	log.Debug("Reconcile pass completed")
	return nil
}

// GetStats возвращает статистику работы воркера
func (w *ReconcileWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "reconcile",
		"interval":    w.interval.String(),
		"runs":        w.runs.Load(),
		"failures":    w.failures.Load(),
	}
}
