package worker

import (
	"context"
	"errors"
	"time"

	"confessions/backend/internal/confession"
	"confessions/backend/internal/config"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"
)

const maxClaimsPerTick = 10

// Worker drains flagged confessions through the external name check.
type Worker struct {
	cfg     config.Config
	store   confession.Store
	checker namecheck.Checker
	logger  *observability.Logger
	metrics *observability.WorkerMetrics
}

// New builds a Worker. A nil logger or metrics gets a no-op logger or fresh metrics.
func New(cfg config.Config, store confession.Store, checker namecheck.Checker, logger *observability.Logger, metrics *observability.WorkerMetrics) *Worker {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if metrics == nil {
		metrics = observability.NewWorkerMetrics()
	}
	return &Worker{
		cfg:     cfg,
		store:   store,
		checker: checker,
		logger:  logger,
		metrics: metrics,
	}
}

func (w *Worker) Run(ctx context.Context) {
	pollEvery := w.cfg.WorkerPollEvery
	if pollEvery <= 0 {
		pollEvery = 5 * time.Second
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		for i := 0; i < maxClaimsPerTick; i++ {
			processed, err := w.processOne(ctx)
			if err != nil {
				w.logger.Error("worker_process_failed", observability.Fields{"error": err.Error()})
				break
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processOne reports whether a confession was claimed.
func (w *Worker) processOne(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	item, ok, err := w.store.ClaimUnverified(ctx)
	if err != nil || !ok {
		return false, err
	}

	startedAt := time.Now()
	taskCtx := ctx
	if w.cfg.WorkerTaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, w.cfg.WorkerTaskTimeout)
		defer cancel()
	}

	verdict, cause := namecheck.ValidateWithAPI(taskCtx, w.checker, item.SenderName)
	status := confession.VerificationVerified
	if !verdict.IsReal {
		status = confession.VerificationSuspect
	}

	if err := w.store.RecordVerification(ctx, item.ID, status, verdict.Confidence); err != nil {
		if errors.Is(err, confession.ErrNotFound) {
			w.logger.Warn("verification_target_missing", observability.Fields{"confession_id": item.ID})
			return true, nil
		}
		return true, err
	}

	duration := time.Since(startedAt)
	w.metrics.ObserveVerification(string(status), cause != nil, duration)

	fields := observability.Fields{
		"confession_id":    item.ID,
		"status":           string(status),
		"api_confidence":   verdict.Confidence,
		"validation_score": item.ValidationScore,
		"duration_ms":      duration.Milliseconds(),
	}
	if cause != nil {
		fields["provider_error"] = cause.Error()
		w.logger.Warn("verification_provider_failed", fields)
	} else {
		w.logger.Info("verification_recorded", fields)
	}
	return true, nil
}
