package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostgresParcelRepository struct {
	*BaseRepository
}

func NewParcelRepository(zapLogger *zap.Logger) repository.ParcelRepository {
	return &PostgresParcelRepository{
		BaseRepository: NewBaseRepository(zapLogger),
	}
}

func (r *PostgresParcelRepository) Create(ctx context.Context, parcel *model.Parcel, seed *model.AuditEntry) error {
	err := r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(parcel).Error; err != nil {
			return err
		}
		return tx.Create(seed).Error
	})
	if err != nil {
		r.logger.Error(ctx, "failed to create parcel: %v", err)
	}
	return err
}

func (r *PostgresParcelRepository) GetByTrackingCode(ctx context.Context, code string) (*model.Parcel, error) {
	var parcel model.Parcel
	err := r.database.WithContext(ctx).
		Where("tracking_code = ?", code).
		First(&parcel).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &parcel, nil
}

func (r *PostgresParcelRepository) GetAll(ctx context.Context) ([]*model.Parcel, error) {
	var parcels []*model.Parcel
	err := r.database.WithContext(ctx).
		Order("created_at ASC").
		Find(&parcels).Error
	if err != nil {
		return nil, err
	}
	return parcels, nil
}

func (r *PostgresParcelRepository) List(ctx context.Context, f *filter.DynamicFilter, limit, offset int) ([]*model.Parcel, int64, error) {
	query := r.database.WithContext(ctx).Model(&model.Parcel{})
	query = database.ApplyDynamicFilter[model.Parcel](query, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f == nil || !f.HasSort() {
		query = query.Order("created_at DESC")
	}

	var parcels []*model.Parcel
	err := query.Limit(limit).Offset(offset).Find(&parcels).Error
	if err != nil {
		return nil, 0, err
	}
	return parcels, total, nil
}

// ApplyStatus commits the parcel mutation and its audit entry in one
// transaction; a missing parcel rolls the whole call back.
func (r *PostgresParcelRepository) ApplyStatus(ctx context.Context, parcelID string, update repository.ParcelStatusUpdate, audit *model.AuditEntry) error {
	err := r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"current_state":     update.State,
			"detail":            update.Detail,
			"vendor_raw_status": update.VendorRawStatus,
			"updated_at":        time.Now().UTC(),
		}
		if update.ManualLock != nil {
			updates["manual_lock"] = *update.ManualLock
		}
		if update.EffectiveAt.Set {
			if update.EffectiveAt.Time != nil {
				updates["effective_at"] = sql.NullTime{Time: update.EffectiveAt.Time.UTC(), Valid: true}
			} else {
				updates["effective_at"] = sql.NullTime{}
			}
		}

		result := tx.Model(&model.Parcel{}).
			Where("id = ?", parcelID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return RecordNotFound
		}

		return tx.Create(audit).Error
	})
	if err != nil && err != RecordNotFound {
		r.logger.Error(ctx, "failed to apply status: %v", err)
	}
	return err
}

func (r *PostgresParcelRepository) SetManualLock(ctx context.Context, parcelID string, locked bool) error {
	result := r.database.WithContext(ctx).
		Model(&model.Parcel{}).
		Where("id = ?", parcelID).
		Updates(map[string]any{
			"manual_lock": locked,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return RecordNotFound
	}
	return nil
}

// Delete removes the parcel and its audit trail. Audit rows never outlive
// an explicit parcel removal.
func (r *PostgresParcelRepository) Delete(ctx context.Context, parcelID string) error {
	return r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parcel_id = ?", parcelID).Delete(&model.AuditEntry{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", parcelID).Delete(&model.Parcel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return RecordNotFound
		}
		return nil
	})
}
