package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job names
const (
	StatisticsReconcileJobName = "statistics_reconcile"
	PositionSyncJobName        = "position_sync"
)

// StatisticsReconciler re-derives the bid aggregates of the active bid cycles
type StatisticsReconciler interface {
	ReconcileActiveCycles(ctx context.Context) (failed int, err error)
}

// PositionSyncer refreshes the local position directory from the warehouse
type PositionSyncer interface {
	SyncFromWarehouse(ctx context.Context) (cycles int, positions int, err error)
}

// StatisticsReconcileJob heals statistics that missed a refresh
type StatisticsReconcileJob struct {
	reconciler StatisticsReconciler
	logger     *zap.Logger
	timeout    time.Duration
}

// NewStatisticsReconcileJob creates a new statistics reconcile job
func NewStatisticsReconcileJob(reconciler StatisticsReconciler, logger *zap.Logger, timeout time.Duration) *StatisticsReconcileJob {
	return &StatisticsReconcileJob{reconciler: reconciler, logger: logger, timeout: timeout}
}

// Run executes one reconciliation pass
func (j *StatisticsReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	failed, err := j.reconciler.ReconcileActiveCycles(ctx)
	if err != nil {
		j.logger.Error("statistics reconcile failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("statistics reconcile completed",
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// PositionSyncJob mirrors positions and bid cycles from the warehouse
type PositionSyncJob struct {
	syncer  PositionSyncer
	logger  *zap.Logger
	timeout time.Duration
}

// NewPositionSyncJob creates a new position sync job
func NewPositionSyncJob(syncer PositionSyncer, logger *zap.Logger, timeout time.Duration) *PositionSyncJob {
	return &PositionSyncJob{syncer: syncer, logger: logger, timeout: timeout}
}

// Run executes one sync pass
func (j *PositionSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	cycles, positions, err := j.syncer.SyncFromWarehouse(ctx)
	if err != nil {
		j.logger.Error("position sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("position sync completed",
		zap.Int("bid_cycles", cycles),
		zap.Int("positions", positions),
		zap.Duration("duration", time.Since(start)))
}

// RegisterStatisticsReconcileJob registers the statistics reconcile job
func RegisterStatisticsReconcileJob(scheduler *Scheduler, reconciler StatisticsReconciler, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewStatisticsReconcileJob(reconciler, logger, timeout)
	return scheduler.AddJob(StatisticsReconcileJobName, cronExpr, job.Run)
}

// RegisterPositionSyncJob registers the position sync job. When runOnStartup is
// set a first sync runs in the background so it does not delay API startup.
func RegisterPositionSyncJob(scheduler *Scheduler, syncer PositionSyncer, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewPositionSyncJob(syncer, logger, timeout)
	if runOnStartup {
		go job.Run()
	}
	return scheduler.AddJob(PositionSyncJobName, cronExpr, job.Run)
}
