package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDb(t *testing.T) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&model.Box{}, &model.Parcel{}, &model.AuditEntry{}))

	database.SetDb(conn)
	t.Cleanup(func() {
		if sqlDb, err := conn.DB(); err == nil {
			_ = sqlDb.Close()
		}
	})
}

func newParcel(code string) *model.Parcel {
	now := time.Now().UTC()
	return &model.Parcel{
		ID:           uuid.NewString(),
		TrackingCode: code,
		CurrentState: model.StateNotScanned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func seedEntry(parcel *model.Parcel) *model.AuditEntry {
	return &model.AuditEntry{
		ID:        uuid.NewString(),
		ParcelID:  parcel.ID,
		State:     parcel.CurrentState,
		CreatedAt: parcel.CreatedAt,
	}
}

func auditAt(parcelID string, state model.ParcelState, at time.Time) *model.AuditEntry {
	return &model.AuditEntry{
		ID:        uuid.NewString(),
		ParcelID:  parcelID,
		State:     state,
		CreatedAt: at,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
