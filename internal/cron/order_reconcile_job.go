package cron

import (
	"context"
	"fmt"

	"github.com/marcoalvarez/boostgrid-backend/internal/reconcile"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

// OrderReconcileJobParams configures the provider order sweep job.
type OrderReconcileJobParams struct {
	Logger    *logger.Logger
	Reconcile reconcile.Service
}

// NewOrderReconcileJob builds the job that converges open provider orders
// with the panel. The heavy lifting lives in the reconcile service; the job
// only adapts it to the cron loop.
func NewOrderReconcileJob(params OrderReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconcile == nil {
		return nil, fmt.Errorf("reconcile service required")
	}
	return &orderReconcileJob{
		logg:      params.Logger,
		reconcile: params.Reconcile,
	}, nil
}

type orderReconcileJob struct {
	logg      *logger.Logger
	reconcile reconcile.Service
}

func (j *orderReconcileJob) Name() string { return "order-reconcile" }

func (j *orderReconcileJob) Run(ctx context.Context) error {
	result, err := j.reconcile.SweepOnce(ctx)
	if err != nil {
		if result != nil && result.Synced > 0 {
			partialCtx := j.logg.WithFields(ctx, map[string]any{
				"synced": result.Synced,
				"failed": result.Failed,
			})
			j.logg.Warn(partialCtx, "sweep finished with partial failures")
		}
		return fmt.Errorf("order reconcile sweep: %w", err)
	}
	return nil
}
