package changelog

import (
	"context"
	"fmt"
	"time"

	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/logger"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type ChangeLogUseCase interface {
	// Query returns classified change-log entries, newest-first.
	Query(ctx context.Context, f repository.ChangeLogFilter) ([]model.ChangeLogEntry, error)
	// After returns entries written strictly after the watermark, capped
	// at limit. It backs the live stream's catch-up loop.
	After(ctx context.Context, watermark time.Time, limit int) ([]model.ChangeLogEntry, error)
	// History returns the raw audit trail for one parcel in
	// chronological order.
	History(ctx context.Context, parcelID string, limit int) ([]*model.AuditEntry, error)
}

type changeLogUseCase struct {
	repository repository.AuditEntryRepository
	logger     *logger.Logger
}

func NewChangeLogUseCase(repository repository.AuditEntryRepository, logger *logger.Logger) ChangeLogUseCase {
	return &changeLogUseCase{
		repository: repository,
		logger:     logger,
	}
}

func (uc *changeLogUseCase) Query(ctx context.Context, f repository.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	if f.ChangeType != "" && f.ChangeType != model.ChangeStatus && f.ChangeType != model.ChangeDetails {
		return nil, fmt.Errorf("invalid change type %q", f.ChangeType)
	}
	if f.State != "" && !f.State.Valid() {
		return nil, fmt.Errorf("invalid state %q", f.State)
	}

	f.Limit = clampLimit(f.Limit)

	return uc.repository.QueryChangeLog(ctx, f)
}

func (uc *changeLogUseCase) After(ctx context.Context, watermark time.Time, limit int) ([]model.ChangeLogEntry, error) {
	return uc.repository.QueryChangeLog(ctx, repository.ChangeLogFilter{
		After: &watermark,
		Limit: clampLimit(limit),
	})
}

func (uc *changeLogUseCase) History(ctx context.Context, parcelID string, limit int) ([]*model.AuditEntry, error) {
	if parcelID == "" {
		return nil, fmt.Errorf("parcel id cannot be empty")
	}
	return uc.repository.GetByParcelID(ctx, parcelID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
