package model

import (
	"database/sql"
	"time"
)

// AuditEntry is one immutable row of a parcel's status history. Rows are
// append-only; the ordered sequence per parcel is the parcel's history.
type AuditEntry struct {
	ID string `gorm:"type:VARCHAR(36);primaryKey"`

	// Audit rows are removed together with their parcel by
	// ParcelRepository.Delete; there is no database-level cascade.
	ParcelID string `gorm:"type:VARCHAR(36);not null;index"`

	State ParcelState    `gorm:"type:VARCHAR(16);not null"`
	Notes sql.NullString `gorm:"type:TEXT;null"`

	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null;index"`
}

// ChangeType classifies an audit entry relative to the chronologically
// preceding entry for the same parcel. Derived on read, never stored.
type ChangeType string

const (
	ChangeStatus  ChangeType = "status_change"
	ChangeDetails ChangeType = "details_update"
)

// ChangeLogEntry is an audit entry joined with its owning parcel and its
// derived classification, as served by the change-log feed.
type ChangeLogEntry struct {
	ID           string      `json:"id"`
	ParcelID     string      `json:"parcelId"`
	TrackingCode string      `json:"trackingCode"`
	BoxID        *string     `json:"boxId,omitempty"`
	State        ParcelState `json:"state"`
	Notes        *string     `json:"notes,omitempty"`
	ChangeType   ChangeType  `json:"changeType"`
	CreatedAt    time.Time   `json:"createdAt"`
}
