package repository

import (
	"context"
	"time"

	"github.com/sortline/sortline/api/domain/model"
)

// ChangeLogFilter bounds and narrows a change-log query. Zero values mean
// "no filter". After is an exclusive watermark: only entries written
// strictly later are returned.
type ChangeLogFilter struct {
	ChangeType   model.ChangeType
	State        model.ParcelState
	BoxID        string
	TrackingCode string
	After        *time.Time
	Limit        int
}

type AuditEntryRepository interface {
	// QueryChangeLog returns audit entries joined with their owning parcel
	// and classified against the preceding entry for the same parcel,
	// newest-first.
	QueryChangeLog(ctx context.Context, f ChangeLogFilter) ([]model.ChangeLogEntry, error)
	GetByParcelID(ctx context.Context, parcelID string, limit int) ([]*model.AuditEntry, error)
}
