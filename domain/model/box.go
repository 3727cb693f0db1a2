package model

import (
	"database/sql"
	"time"
)

type Box struct {
	ID          string         `gorm:"type:VARCHAR(36);primaryKey"`
	Name        string         `gorm:"type:VARCHAR(128);not null"`
	Description sql.NullString `gorm:"type:TEXT;null"`

	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null"`
	UpdatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null"`
}
