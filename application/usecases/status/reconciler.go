package status

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Outcome says what the reconciler did with a candidate status.
type Outcome string

const (
	// OutcomeStatusChange means the canonical state moved.
	OutcomeStatusChange Outcome = "STATUS_CHANGE"
	// OutcomeDetailsUpdate means the state held but detail or the vendor
	// raw status changed (or a manual call re-applied an identical state).
	OutcomeDetailsUpdate Outcome = "DETAILS_UPDATE"
	// OutcomeNoChange means an automated signal matched what is stored;
	// nothing was written.
	OutcomeNoChange Outcome = "NO_CHANGE"
	// OutcomeManualLockRejected means automation was blocked by a human
	// override. Not an error: callers surface it distinctly.
	OutcomeManualLockRejected Outcome = "MANUAL_LOCK_REJECTED"
)

// ApplyInput is one candidate status for a tracked parcel.
type ApplyInput struct {
	TrackingCode    string
	State           model.ParcelState
	Detail          string
	VendorRawStatus string
	// Manual marks a human decision: always applied, sets the manual lock.
	Manual bool
	// EffectiveAt overwrites the stored override only when Set; an
	// explicit null clears it, an omitted field preserves it.
	EffectiveAt model.OptionalTime
}

type ApplyResult struct {
	Outcome Outcome
	Parcel  *model.Parcel
}

// StatusUseCase is the reconciler: the single gate through which every
// status mutation (webhook, poll, or human) reaches the store.
type StatusUseCase interface {
	Apply(ctx context.Context, input ApplyInput) (ApplyResult, error)
}

type statusUseCase struct {
	parcelRepo repository.ParcelRepository
	logger     *logger.Logger
	metrics    metrics.Manager
}

func NewStatusUseCase(parcelRepo repository.ParcelRepository, log *logger.Logger, manager metrics.Manager) StatusUseCase {
	return &statusUseCase{
		parcelRepo: parcelRepo,
		logger:     log,
		metrics:    manager,
	}
}

func (uc *statusUseCase) Apply(ctx context.Context, input ApplyInput) (ApplyResult, error) {
	if !input.State.Valid() {
		return ApplyResult{}, fmt.Errorf("invalid canonical state %q", input.State)
	}

	parcel, err := uc.parcelRepo.GetByTrackingCode(ctx, input.TrackingCode)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("reconcile %s: %w", input.TrackingCode, err)
	}

	if parcel.ManualLock && !input.Manual {
		uc.logger.Info("automated update rejected by manual lock",
			zap.String("trackingCode", input.TrackingCode),
			zap.String("candidateState", string(input.State)),
		)
		uc.count("reconcile_rejected_manual_lock_total")
		return ApplyResult{Outcome: OutcomeManualLockRejected, Parcel: parcel}, nil
	}

	stateChanged := parcel.CurrentState != input.State
	detailChanged := nullableString(parcel.Detail) != input.Detail
	rawChanged := nullableString(parcel.VendorRawStatus) != input.VendorRawStatus

	// Automated signals are idempotent: identical state, detail, and raw
	// vendor status write nothing, so duplicate webhook deliveries and
	// repeated polls don't flood the audit trail. Manual calls always
	// apply.
	if !input.Manual && !stateChanged && !detailChanged && !rawChanged {
		return ApplyResult{Outcome: OutcomeNoChange, Parcel: parcel}, nil
	}

	update := repository.ParcelStatusUpdate{
		State:           input.State,
		Detail:          toNullString(input.Detail),
		VendorRawStatus: toNullString(input.VendorRawStatus),
		EffectiveAt:     input.EffectiveAt,
	}
	if input.Manual {
		locked := true
		update.ManualLock = &locked
	}

	audit := &model.AuditEntry{
		ID:        uuid.NewString(),
		ParcelID:  parcel.ID,
		State:     input.State,
		Notes:     toNullString(input.Detail),
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.parcelRepo.ApplyStatus(ctx, parcel.ID, update, audit); err != nil {
		return ApplyResult{}, fmt.Errorf("reconcile %s: %w", input.TrackingCode, err)
	}

	outcome := OutcomeDetailsUpdate
	if stateChanged {
		outcome = OutcomeStatusChange
	}

	// The change-log publisher re-derives this classification from stored
	// rows; the two must agree.
	uc.logger.Info(string(outcome),
		zap.String("trackingCode", input.TrackingCode),
		zap.String("previousState", string(parcel.CurrentState)),
		zap.String("newState", string(input.State)),
		zap.Bool("manual", input.Manual),
	)
	uc.count("reconcile_applied_total", attribute.String("outcome", string(outcome)))

	applied := *parcel
	applied.CurrentState = input.State
	applied.Detail = toNullString(input.Detail)
	applied.VendorRawStatus = toNullString(input.VendorRawStatus)
	if input.Manual {
		applied.ManualLock = true
	}
	if input.EffectiveAt.Set {
		if input.EffectiveAt.Time != nil {
			applied.EffectiveAt = sql.NullTime{Time: input.EffectiveAt.Time.UTC(), Valid: true}
		} else {
			applied.EffectiveAt = sql.NullTime{}
		}
	}
	applied.UpdatedAt = time.Now().UTC()

	return ApplyResult{Outcome: outcome, Parcel: &applied}, nil
}

func (uc *statusUseCase) count(name string, attrs ...attribute.KeyValue) {
	if uc.metrics != nil {
		uc.metrics.IncCounter(name, attrs...)
	}
}

func nullableString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
