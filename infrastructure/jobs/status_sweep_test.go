package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	persistence "github.com/sortline/sortline/api/infrastructure/persistence/repository"
	"github.com/sortline/sortline/api/infrastructure/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParcelRepo struct {
	parcels []*model.Parcel
}

func (r *stubParcelRepo) Create(context.Context, *model.Parcel, *model.AuditEntry) error {
	return nil
}

func (r *stubParcelRepo) GetByTrackingCode(context.Context, string) (*model.Parcel, error) {
	return nil, persistence.RecordNotFound
}

func (r *stubParcelRepo) GetAll(context.Context) ([]*model.Parcel, error) {
	return r.parcels, nil
}

func (r *stubParcelRepo) List(context.Context, *filter.DynamicFilter, int, int) ([]*model.Parcel, int64, error) {
	return r.parcels, int64(len(r.parcels)), nil
}

func (r *stubParcelRepo) ApplyStatus(context.Context, string, repository.ParcelStatusUpdate, *model.AuditEntry) error {
	return nil
}

func (r *stubParcelRepo) SetManualLock(context.Context, string, bool) error { return nil }
func (r *stubParcelRepo) Delete(context.Context, string) error              { return nil }

type blockingClient struct {
	release chan struct{}
	calls   atomic.Int64
}

func (c *blockingClient) FetchStatus(_ context.Context, _ string) tracking.Candidate {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return tracking.Candidate{State: model.StateNotScanned}
}

type recordingStatusUseCase struct {
	mu     sync.Mutex
	inputs []status.ApplyInput
}

func (uc *recordingStatusUseCase) Apply(_ context.Context, input status.ApplyInput) (status.ApplyResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.inputs = append(uc.inputs, input)
	return status.ApplyResult{Outcome: status.OutcomeNoChange}, nil
}

func sweepConfig() config.SweepConfig {
	return config.SweepConfig{
		Interval:  time.Hour,
		BatchSize: 2,
	}
}

func parcels(codes ...string) []*model.Parcel {
	var out []*model.Parcel
	for _, code := range codes {
		out = append(out, &model.Parcel{ID: code, TrackingCode: code})
	}
	return out
}

func TestTriggerNow_SingleFlight(t *testing.T) {
	client := &blockingClient{release: make(chan struct{})}
	job := NewStatusSweepJob(
		&stubParcelRepo{parcels: parcels("A1")},
		client,
		&recordingStatusUseCase{},
		logger.NewNopLogger(),
		nil,
		sweepConfig(),
	)

	require.True(t, job.TriggerNow(context.Background()))

	// Wait until the sweep is actually inside the vendor call.
	require.Eventually(t, func() bool {
		return client.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, job.TriggerNow(context.Background()), "second trigger during an active sweep must be a no-op")
	assert.True(t, job.Running())

	close(client.release)

	require.Eventually(t, func() bool {
		return !job.Running()
	}, time.Second, 5*time.Millisecond)

	// With the first sweep finished, a new trigger is accepted again.
	assert.True(t, job.TriggerNow(context.Background()))
	require.Eventually(t, func() bool {
		return !job.Running()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), client.calls.Load())
}

type ctxRecordingClient struct {
	entered chan struct{}
	release chan struct{}

	mu      sync.Mutex
	ctxErrs []error
}

func (c *ctxRecordingClient) FetchStatus(ctx context.Context, _ string) tracking.Candidate {
	close(c.entered)
	<-c.release

	c.mu.Lock()
	c.ctxErrs = append(c.ctxErrs, ctx.Err())
	c.mu.Unlock()

	return tracking.Candidate{State: model.StateNotScanned}
}

func TestTriggerNow_SweepOutlivesTriggerContext(t *testing.T) {
	client := &ctxRecordingClient{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	job := NewStatusSweepJob(
		&stubParcelRepo{parcels: parcels("A1")},
		client,
		&recordingStatusUseCase{},
		logger.NewNopLogger(),
		nil,
		sweepConfig(),
	)

	// The manual refresh endpoint hands the job a request-scoped context
	// and answers 202 immediately; net/http then cancels that context.
	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, job.TriggerNow(ctx))

	<-client.entered
	cancel()
	close(client.release)

	require.Eventually(t, func() bool {
		return !job.Running()
	}, 2*time.Second, 5*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.ctxErrs, 1)
	assert.NoError(t, client.ctxErrs[0], "background sweep must keep a live context after the trigger returns")
}

func TestRunSweep_ReconcilesEveryParcel(t *testing.T) {
	client := &blockingClient{}
	uc := &recordingStatusUseCase{}
	job := NewStatusSweepJob(
		&stubParcelRepo{parcels: parcels("A1", "B2", "C3", "D4", "E5")},
		client,
		uc,
		logger.NewNopLogger(),
		nil,
		sweepConfig(),
	)

	require.True(t, job.TriggerNow(context.Background()))
	require.Eventually(t, func() bool {
		return !job.Running()
	}, 2*time.Second, 5*time.Millisecond)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	assert.Len(t, uc.inputs, 5)
	for _, input := range uc.inputs {
		assert.False(t, input.Manual, "sweep updates are automated")
	}
}

type failingStatusUseCase struct {
	applied atomic.Int64
}

func (uc *failingStatusUseCase) Apply(_ context.Context, input status.ApplyInput) (status.ApplyResult, error) {
	uc.applied.Add(1)
	if input.TrackingCode == "BAD" {
		return status.ApplyResult{}, persistence.RecordNotFound
	}
	return status.ApplyResult{Outcome: status.OutcomeNoChange}, nil
}

func TestRunSweep_ItemFailureDoesNotAbort(t *testing.T) {
	uc := &failingStatusUseCase{}
	job := NewStatusSweepJob(
		&stubParcelRepo{parcels: parcels("A1", "BAD", "C3")},
		&blockingClient{},
		uc,
		logger.NewNopLogger(),
		nil,
		sweepConfig(),
	)

	require.True(t, job.TriggerNow(context.Background()))
	require.Eventually(t, func() bool {
		return !job.Running()
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(3), uc.applied.Load(), "failure on one parcel must not stop the sweep")
}
