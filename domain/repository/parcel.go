package repository

import (
	"context"
	"database/sql"

	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
)

// ParcelStatusUpdate carries the mutable fields written by the reconciler.
// A nil ManualLock leaves the lock untouched; EffectiveAt follows its
// tri-state semantics (unset = preserve stored value).
type ParcelStatusUpdate struct {
	State           model.ParcelState
	Detail          sql.NullString
	VendorRawStatus sql.NullString
	ManualLock      *bool
	EffectiveAt     model.OptionalTime
}

type ParcelRepository interface {
	// Create inserts the parcel together with its seed audit entry in a
	// single transaction.
	Create(ctx context.Context, parcel *model.Parcel, seed *model.AuditEntry) error
	GetByTrackingCode(ctx context.Context, code string) (*model.Parcel, error)
	GetAll(ctx context.Context) ([]*model.Parcel, error)
	List(ctx context.Context, f *filter.DynamicFilter, limit, offset int) ([]*model.Parcel, int64, error)
	// ApplyStatus updates the parcel row and appends exactly one audit
	// entry atomically; both commit or both roll back.
	ApplyStatus(ctx context.Context, parcelID string, update ParcelStatusUpdate, audit *model.AuditEntry) error
	SetManualLock(ctx context.Context, parcelID string, locked bool) error
	Delete(ctx context.Context, parcelID string) error
}
