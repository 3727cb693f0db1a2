package parcel

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"go.uber.org/zap"
)

type RegisterInput struct {
	TrackingCode string
	BoxID        string
	Detail       string
}

type ManualStatusInput struct {
	TrackingCode string
	State        model.ParcelState
	Detail       string
	EffectiveAt  model.OptionalTime
}

type ParcelUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*model.Parcel, error)
	GetByTrackingCode(ctx context.Context, code string) (*model.Parcel, error)
	List(ctx context.Context, f *filter.DynamicFilter, limit, offset int) ([]*model.Parcel, int64, error)
	Delete(ctx context.Context, trackingCode string) error
	SetManualStatus(ctx context.Context, input ManualStatusInput) (status.ApplyResult, error)
	ClearManualLock(ctx context.Context, trackingCode string) (*model.Parcel, error)
}

type parcelUseCase struct {
	parcelRepo repository.ParcelRepository
	boxRepo    repository.BoxRepository
	status     status.StatusUseCase
	logger     *logger.Logger
}

func NewParcelUseCase(
	parcelRepo repository.ParcelRepository,
	boxRepo repository.BoxRepository,
	statusUseCase status.StatusUseCase,
	logger *logger.Logger,
) ParcelUseCase {
	return &parcelUseCase{
		parcelRepo: parcelRepo,
		boxRepo:    boxRepo,
		status:     statusUseCase,
		logger:     logger,
	}
}

func (uc *parcelUseCase) Register(ctx context.Context, input RegisterInput) (*model.Parcel, error) {
	code := strings.TrimSpace(input.TrackingCode)
	if code == "" {
		return nil, fmt.Errorf("tracking code cannot be empty")
	}

	if input.BoxID != "" {
		if _, err := uc.boxRepo.GetByID(ctx, input.BoxID); err != nil {
			return nil, fmt.Errorf("box %s: %w", input.BoxID, err)
		}
	}

	now := time.Now().UTC()
	parcel := &model.Parcel{
		ID:           uuid.NewString(),
		TrackingCode: code,
		CurrentState: model.StateNotScanned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.BoxID != "" {
		parcel.BoxID = sql.NullString{String: input.BoxID, Valid: true}
	}
	if input.Detail != "" {
		parcel.Detail = sql.NullString{String: input.Detail, Valid: true}
	}

	seed := &model.AuditEntry{
		ID:        uuid.NewString(),
		ParcelID:  parcel.ID,
		State:     model.StateNotScanned,
		Notes:     parcel.Detail,
		CreatedAt: now,
	}

	if err := uc.parcelRepo.Create(ctx, parcel, seed); err != nil {
		uc.logger.Error("failed to register parcel", zap.String("trackingCode", code), zap.Error(err))
		return nil, fmt.Errorf("failed to register parcel: %w", err)
	}

	uc.logger.Info("parcel registered",
		zap.String("trackingCode", code),
		zap.String("parcelID", parcel.ID),
	)

	return parcel, nil
}

func (uc *parcelUseCase) GetByTrackingCode(ctx context.Context, code string) (*model.Parcel, error) {
	if code == "" {
		return nil, fmt.Errorf("tracking code cannot be empty")
	}
	return uc.parcelRepo.GetByTrackingCode(ctx, code)
}

func (uc *parcelUseCase) List(ctx context.Context, f *filter.DynamicFilter, limit, offset int) ([]*model.Parcel, int64, error) {
	return uc.parcelRepo.List(ctx, f, limit, offset)
}

func (uc *parcelUseCase) Delete(ctx context.Context, trackingCode string) error {
	parcel, err := uc.parcelRepo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return err
	}

	if err := uc.parcelRepo.Delete(ctx, parcel.ID); err != nil {
		uc.logger.Error("failed to delete parcel", zap.String("trackingCode", trackingCode), zap.Error(err))
		return fmt.Errorf("failed to delete parcel: %w", err)
	}

	uc.logger.Info("parcel deleted", zap.String("trackingCode", trackingCode))
	return nil
}

// SetManualStatus records a human decision. It always writes, even when
// the submitted state equals the stored one, and engages the manual lock.
func (uc *parcelUseCase) SetManualStatus(ctx context.Context, input ManualStatusInput) (status.ApplyResult, error) {
	return uc.status.Apply(ctx, status.ApplyInput{
		TrackingCode: input.TrackingCode,
		State:        input.State,
		Detail:       input.Detail,
		Manual:       true,
		EffectiveAt:  input.EffectiveAt,
	})
}

func (uc *parcelUseCase) ClearManualLock(ctx context.Context, trackingCode string) (*model.Parcel, error) {
	parcel, err := uc.parcelRepo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return nil, err
	}

	if err := uc.parcelRepo.SetManualLock(ctx, parcel.ID, false); err != nil {
		return nil, fmt.Errorf("failed to clear manual lock: %w", err)
	}

	uc.logger.Info("manual lock cleared", zap.String("trackingCode", trackingCode))

	parcel.ManualLock = false
	return parcel, nil
}
