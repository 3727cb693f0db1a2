package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParcelRepository_CreateAndGet(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-1001")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))

	got, err := repo.GetByTrackingCode(ctx, "SL-1001")
	require.NoError(t, err)
	assert.Equal(t, parcel.ID, got.ID)
	assert.Equal(t, model.StateNotScanned, got.CurrentState)

	var auditCount int64
	require.NoError(t, database.GetDb().Model(&model.AuditEntry{}).
		Where("parcel_id = ?", parcel.ID).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)
}

func TestParcelRepository_GetByTrackingCodeNotFound(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())

	_, err := repo.GetByTrackingCode(context.Background(), "missing")
	assert.ErrorIs(t, err, RecordNotFound)
}

func TestParcelRepository_ApplyStatus(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-2001")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))

	update := repository.ParcelStatusUpdate{
		State:           model.StateScanned,
		Detail:          nullString("Arrived at hub"),
		VendorRawStatus: nullString("IN_TRANSIT"),
	}
	audit := auditAt(parcel.ID, model.StateScanned, time.Now().UTC())
	audit.Notes = nullString("Arrived at hub")
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID, update, audit))

	got, err := repo.GetByTrackingCode(ctx, "SL-2001")
	require.NoError(t, err)
	assert.Equal(t, model.StateScanned, got.CurrentState)
	assert.Equal(t, "Arrived at hub", got.Detail.String)
	assert.Equal(t, "IN_TRANSIT", got.VendorRawStatus.String)
	assert.False(t, got.ManualLock)

	var auditCount int64
	require.NoError(t, database.GetDb().Model(&model.AuditEntry{}).
		Where("parcel_id = ?", parcel.ID).Count(&auditCount).Error)
	assert.EqualValues(t, 2, auditCount)
}

func TestParcelRepository_ApplyStatusUnknownParcelRollsBack(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	audit := auditAt(uuid.NewString(), model.StateDelivered, time.Now().UTC())
	err := repo.ApplyStatus(ctx, audit.ParcelID, repository.ParcelStatusUpdate{
		State: model.StateDelivered,
	}, audit)
	assert.ErrorIs(t, err, RecordNotFound)

	var auditCount int64
	require.NoError(t, database.GetDb().Model(&model.AuditEntry{}).Count(&auditCount).Error)
	assert.Zero(t, auditCount)
}

func TestParcelRepository_ApplyStatusManualLock(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-2002")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))

	locked := true
	update := repository.ParcelStatusUpdate{
		State:      model.StateDelivered,
		ManualLock: &locked,
	}
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID,
		update, auditAt(parcel.ID, model.StateDelivered, time.Now().UTC())))

	got, err := repo.GetByTrackingCode(ctx, "SL-2002")
	require.NoError(t, err)
	assert.True(t, got.ManualLock)
}

func TestParcelRepository_ApplyStatusEffectiveAt(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-2003")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))

	effective := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	update := repository.ParcelStatusUpdate{
		State:       model.StateScanned,
		EffectiveAt: model.OptionalTime{Set: true, Time: &effective},
	}
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID,
		update, auditAt(parcel.ID, model.StateScanned, time.Now().UTC())))

	got, err := repo.GetByTrackingCode(ctx, "SL-2003")
	require.NoError(t, err)
	require.True(t, got.EffectiveAt.Valid)
	assert.True(t, got.EffectiveAt.Time.Equal(effective))

	// An unset OptionalTime leaves the stored override alone.
	update = repository.ParcelStatusUpdate{State: model.StateScanned}
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID,
		update, auditAt(parcel.ID, model.StateScanned, time.Now().UTC())))

	got, err = repo.GetByTrackingCode(ctx, "SL-2003")
	require.NoError(t, err)
	assert.True(t, got.EffectiveAt.Valid)

	// An explicit null clears it.
	update = repository.ParcelStatusUpdate{
		State:       model.StateScanned,
		EffectiveAt: model.OptionalTime{Set: true},
	}
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID,
		update, auditAt(parcel.ID, model.StateScanned, time.Now().UTC())))

	got, err = repo.GetByTrackingCode(ctx, "SL-2003")
	require.NoError(t, err)
	assert.False(t, got.EffectiveAt.Valid)
}

func TestParcelRepository_SetManualLock(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-3001")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))

	require.NoError(t, repo.SetManualLock(ctx, parcel.ID, true))
	got, err := repo.GetByTrackingCode(ctx, "SL-3001")
	require.NoError(t, err)
	assert.True(t, got.ManualLock)

	require.NoError(t, repo.SetManualLock(ctx, parcel.ID, false))
	got, err = repo.GetByTrackingCode(ctx, "SL-3001")
	require.NoError(t, err)
	assert.False(t, got.ManualLock)

	err = repo.SetManualLock(ctx, uuid.NewString(), true)
	assert.ErrorIs(t, err, RecordNotFound)
}

func TestParcelRepository_DeleteRemovesAuditTrail(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	parcel := newParcel("SL-4001")
	require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))
	require.NoError(t, repo.ApplyStatus(ctx, parcel.ID,
		repository.ParcelStatusUpdate{State: model.StateScanned},
		auditAt(parcel.ID, model.StateScanned, time.Now().UTC())))

	require.NoError(t, repo.Delete(ctx, parcel.ID))

	_, err := repo.GetByTrackingCode(ctx, "SL-4001")
	assert.ErrorIs(t, err, RecordNotFound)

	var auditCount int64
	require.NoError(t, database.GetDb().Model(&model.AuditEntry{}).
		Where("parcel_id = ?", parcel.ID).Count(&auditCount).Error)
	assert.Zero(t, auditCount)

	err = repo.Delete(ctx, parcel.ID)
	assert.ErrorIs(t, err, RecordNotFound)
}

func TestParcelRepository_List(t *testing.T) {
	setupTestDb(t)
	repo := NewParcelRepository(zap.NewNop())
	ctx := context.Background()

	for _, code := range []string{"SL-5001", "SL-5002", "SL-5003"} {
		parcel := newParcel(code)
		require.NoError(t, repo.Create(ctx, parcel, seedEntry(parcel)))
	}

	parcels, total, err := repo.List(ctx, nil, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, parcels, 2)

	parcels, total, err = repo.List(ctx, nil, 10, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, parcels, 1)
}
