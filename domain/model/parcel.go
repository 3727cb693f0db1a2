package model

import (
	"database/sql"
	"time"
)

// ParcelState is the canonical three-state status of a tracked parcel.
type ParcelState string

const (
	StateNotScanned ParcelState = "not_scanned"
	StateScanned    ParcelState = "scanned"
	StateDelivered  ParcelState = "delivered"
)

func (s ParcelState) Valid() bool {
	switch s {
	case StateNotScanned, StateScanned, StateDelivered:
		return true
	}
	return false
}

type Parcel struct {
	ID           string `gorm:"type:VARCHAR(36);primaryKey"`
	TrackingCode string `gorm:"type:VARCHAR(64);not null;uniqueIndex"`
	BoxID        sql.NullString `gorm:"type:VARCHAR(36);null;index"`

	CurrentState    ParcelState    `gorm:"type:VARCHAR(16);not null;default:'not_scanned'"`
	Detail          sql.NullString `gorm:"type:TEXT;null"`
	VendorRawStatus sql.NullString `gorm:"type:VARCHAR(128);null"`

	// ManualLock blocks automated sources from mutating state until cleared.
	ManualLock bool `gorm:"not null;default:false"`

	// EffectiveAt overrides when the current state actually occurred,
	// independent of UpdatedAt.
	EffectiveAt sql.NullTime `gorm:"type:TIMESTAMP with time zone;null"`

	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null"`
	UpdatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null"`
}
