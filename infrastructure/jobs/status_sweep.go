package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/metrics"
	"github.com/sortline/sortline/api/infrastructure/tracking"
	"go.uber.org/zap"
)

// StatusSweepJob periodically reconciles every tracked parcel against the
// vendor. At most one sweep runs at a time: triggers that arrive while a
// sweep is active are dropped, not queued.
type StatusSweepJob struct {
	parcelRepo repository.ParcelRepository
	client     tracking.Client
	status     status.StatusUseCase
	logger     *logger.Logger
	metrics    metrics.Manager

	interval   time.Duration
	batchSize  int
	itemPause  time.Duration
	batchPause time.Duration

	inProgress atomic.Bool
	stopChan   chan struct{}
}

func NewStatusSweepJob(
	parcelRepo repository.ParcelRepository,
	client tracking.Client,
	statusUseCase status.StatusUseCase,
	logger *logger.Logger,
	manager metrics.Manager,
	cfg config.SweepConfig,
) *StatusSweepJob {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	return &StatusSweepJob{
		parcelRepo: parcelRepo,
		client:     client,
		status:     statusUseCase,
		logger:     logger,
		metrics:    manager,
		interval:   cfg.Interval,
		batchSize:  batchSize,
		itemPause:  cfg.ItemPause,
		batchPause: cfg.BatchPause,
		stopChan:   make(chan struct{}),
	}
}

func (j *StatusSweepJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Status sweep job started",
		zap.Duration("interval", j.interval),
		zap.Int("batchSize", j.batchSize),
	)

	j.TriggerNow(ctx)

	for {
		select {
		case <-ticker.C:
			j.TriggerNow(ctx)
		case <-j.stopChan:
			j.logger.Info("Status sweep job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Status sweep job context cancelled")
			return
		}
	}
}

func (j *StatusSweepJob) Stop() {
	close(j.stopChan)
}

// TriggerNow starts a sweep asynchronously. It reports whether the sweep
// was started; false means one is already running and this trigger was a
// no-op. Callers learn the sweep started, not how it ended. The sweep
// outlives the caller: a cancelled trigger context (an HTTP request that
// already got its 202) must not abort the background run.
func (j *StatusSweepJob) TriggerNow(ctx context.Context) bool {
	if !j.inProgress.CompareAndSwap(false, true) {
		j.logger.Info("Status sweep already in progress, trigger ignored")
		return false
	}

	sweepCtx := context.WithoutCancel(ctx)

	go func() {
		defer j.inProgress.Store(false)
		j.runSweep(sweepCtx)
	}()

	return true
}

// Running reports whether a sweep is currently active.
func (j *StatusSweepJob) Running() bool {
	return j.inProgress.Load()
}

func (j *StatusSweepJob) runSweep(ctx context.Context) {
	startTime := time.Now()

	parcels, err := j.parcelRepo.GetAll(ctx)
	if err != nil {
		j.logger.Error("Status sweep failed to list parcels", zap.Error(err))
		return
	}

	var failures atomic.Int64

	for start := 0; start < len(parcels); start += j.batchSize {
		end := start + j.batchSize
		if end > len(parcels) {
			end = len(parcels)
		}

		var wg sync.WaitGroup
		for _, parcel := range parcels[start:end] {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				if err := j.reconcileOne(ctx, code); err != nil {
					failures.Add(1)
					j.logger.Warn("Sweep item failed",
						zap.String("trackingCode", code),
						zap.Error(err),
					)
				}
			}(parcel.TrackingCode)

			// Stagger lookups within a batch so the vendor sees a trickle
			// rather than a burst.
			if j.itemPause > 0 {
				time.Sleep(j.itemPause)
			}
		}
		wg.Wait()

		if end < len(parcels) && j.batchPause > 0 {
			time.Sleep(j.batchPause)
		}
	}

	j.logger.Info("Status sweep completed",
		zap.Int("parcels", len(parcels)),
		zap.Int64("failures", failures.Load()),
		zap.Duration("duration", time.Since(startTime)),
	)

	if j.metrics != nil {
		j.metrics.IncCounter("status_sweep_runs_total")
		j.metrics.AddCounter("status_sweep_item_failures_total", failures.Load())
	}
}

func (j *StatusSweepJob) reconcileOne(ctx context.Context, trackingCode string) error {
	candidate := j.client.FetchStatus(ctx, trackingCode)

	_, err := j.status.Apply(ctx, status.ApplyInput{
		TrackingCode:    trackingCode,
		State:           candidate.State,
		Detail:          candidate.Detail,
		VendorRawStatus: candidate.VendorRawStatus,
	})
	return err
}
