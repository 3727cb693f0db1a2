package changelog

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/parcel"
	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
	domainrepo "github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/persistence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChangeLogUseCase struct {
	mu         sync.Mutex
	afterErr   error
	pending    []model.ChangeLogEntry
	watermarks []time.Time

	queryFilter domainrepo.ChangeLogFilter
	queryErr    error
	history     []*model.AuditEntry
}

func (f *fakeChangeLogUseCase) Query(ctx context.Context, fl domainrepo.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryFilter = fl
	return nil, f.queryErr
}

func (f *fakeChangeLogUseCase) After(ctx context.Context, watermark time.Time, limit int) ([]model.ChangeLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.watermarks = append(f.watermarks, watermark)
	if f.afterErr != nil {
		return nil, f.afterErr
	}

	entries := f.pending
	f.pending = nil
	return entries, nil
}

func (f *fakeChangeLogUseCase) History(ctx context.Context, parcelID string, limit int) ([]*model.AuditEntry, error) {
	return f.history, nil
}

func (f *fakeChangeLogUseCase) seenWatermarks() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.watermarks...)
}

type fakeParcelUseCase struct {
	parcel *model.Parcel
	err    error
}

func (f *fakeParcelUseCase) Register(ctx context.Context, input parcel.RegisterInput) (*model.Parcel, error) {
	return f.parcel, f.err
}

func (f *fakeParcelUseCase) GetByTrackingCode(ctx context.Context, code string) (*model.Parcel, error) {
	return f.parcel, f.err
}

func (f *fakeParcelUseCase) List(ctx context.Context, fl *filter.DynamicFilter, limit, offset int) ([]*model.Parcel, int64, error) {
	return nil, 0, f.err
}

func (f *fakeParcelUseCase) Delete(ctx context.Context, trackingCode string) error {
	return f.err
}

func (f *fakeParcelUseCase) SetManualStatus(ctx context.Context, input parcel.ManualStatusInput) (status.ApplyResult, error) {
	return status.ApplyResult{}, f.err
}

func (f *fakeParcelUseCase) ClearManualLock(ctx context.Context, trackingCode string) (*model.Parcel, error) {
	return f.parcel, f.err
}

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		TickInterval:   20 * time.Millisecond,
		HeartbeatTicks: 3,
		Lookback:       time.Minute,
		MaxEntries:     100,
	}
}

func streamServer(t *testing.T, uc *fakeChangeLogUseCase) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	controller := NewChangeLogController(uc, &fakeParcelUseCase{}, testFeedConfig(), logger.NewNopLogger())

	router := gin.New()
	router.GET("/stream", controller.Stream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// readFrames consumes SSE frames until want distinct types were seen or the
// context expires.
func readFrames(t *testing.T, body *bufio.Scanner, want int) []StreamFrame {
	t.Helper()

	var frames []StreamFrame
	for body.Scan() {
		line := body.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame StreamFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
		if len(frames) >= want {
			break
		}
	}
	return frames
}

func TestStream_DeliversLogsAndHeartbeats(t *testing.T) {
	entryTime := time.Now().UTC().Truncate(time.Millisecond)
	uc := &fakeChangeLogUseCase{
		pending: []model.ChangeLogEntry{{
			ID:           "entry-1",
			ParcelID:     "parcel-1",
			TrackingCode: "SL-9001",
			State:        model.StateDelivered,
			ChangeType:   model.ChangeStatus,
			CreatedAt:    entryTime,
		}},
	}
	srv := streamServer(t, uc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := readFrames(t, bufio.NewScanner(resp.Body), 3)
	require.Len(t, frames, 3)

	assert.Equal(t, "connected", frames[0].Type)

	require.Equal(t, "logs", frames[1].Type)
	require.Len(t, frames[1].Logs, 1)
	assert.Equal(t, "SL-9001", frames[1].Logs[0].TrackingCode)

	assert.Equal(t, "heartbeat", frames[2].Type)

	// The watermark advances to the delivered entry's timestamp once the
	// logs frame goes out.
	watermarks := uc.seenWatermarks()
	require.GreaterOrEqual(t, len(watermarks), 2)
	assert.True(t, watermarks[len(watermarks)-1].Equal(entryTime))
}

func TestStream_QueryFailureDegradesToErrorFrames(t *testing.T) {
	uc := &fakeChangeLogUseCase{afterErr: errors.New("database unavailable")}
	srv := streamServer(t, uc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := readFrames(t, bufio.NewScanner(resp.Body), 3)
	require.Len(t, frames, 3)

	assert.Equal(t, "connected", frames[0].Type)
	// The stream stays up across failed ticks instead of terminating.
	assert.Equal(t, "error", frames[1].Type)
	assert.Equal(t, "error", frames[2].Type)
}

func TestQueryChangeLog_InvalidFilterRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uc := &fakeChangeLogUseCase{queryErr: errors.New("invalid change type \"bogus\"")}
	controller := NewChangeLogController(uc, &fakeParcelUseCase{}, testFeedConfig(), logger.NewNopLogger())

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/changelog?change_type=bogus", nil)

	controller.QueryChangeLog(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetParcelHistory_UnknownParcel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uc := &fakeChangeLogUseCase{}
	parcels := &fakeParcelUseCase{err: repository.RecordNotFound}
	controller := NewChangeLogController(uc, parcels, testFeedConfig(), logger.NewNopLogger())

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/parcels/SL-1/history", nil)
	ctx.Params = gin.Params{{Key: "code", Value: "SL-1"}}

	controller.GetParcelHistory(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
