package changelog

import (
	"context"
	"testing"
	"time"

	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditRepo struct {
	lastFilter repository.ChangeLogFilter
	entries    []model.ChangeLogEntry
}

func (r *fakeAuditRepo) QueryChangeLog(_ context.Context, f repository.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	r.lastFilter = f
	return r.entries, nil
}

func (r *fakeAuditRepo) GetByParcelID(_ context.Context, _ string, _ int) ([]*model.AuditEntry, error) {
	return nil, nil
}

func TestQuery_DefaultLimit(t *testing.T) {
	repo := &fakeAuditRepo{}
	uc := NewChangeLogUseCase(repo, logger.NewNopLogger())

	_, err := uc.Query(context.Background(), repository.ChangeLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastFilter.Limit)
}

func TestQuery_LimitCapped(t *testing.T) {
	repo := &fakeAuditRepo{}
	uc := NewChangeLogUseCase(repo, logger.NewNopLogger())

	_, err := uc.Query(context.Background(), repository.ChangeLogFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastFilter.Limit)
}

func TestQuery_InvalidChangeType(t *testing.T) {
	uc := NewChangeLogUseCase(&fakeAuditRepo{}, logger.NewNopLogger())

	_, err := uc.Query(context.Background(), repository.ChangeLogFilter{ChangeType: "renamed"})
	assert.Error(t, err)
}

func TestQuery_InvalidState(t *testing.T) {
	uc := NewChangeLogUseCase(&fakeAuditRepo{}, logger.NewNopLogger())

	_, err := uc.Query(context.Background(), repository.ChangeLogFilter{State: "lost"})
	assert.Error(t, err)
}

func TestAfter_SetsWatermark(t *testing.T) {
	repo := &fakeAuditRepo{}
	uc := NewChangeLogUseCase(repo, logger.NewNopLogger())

	watermark := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := uc.After(context.Background(), watermark, 0)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.After)
	assert.Equal(t, watermark, *repo.lastFilter.After)
	assert.Equal(t, 50, repo.lastFilter.Limit)
}
