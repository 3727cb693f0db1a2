package repository

import (
	"context"

	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"go.uber.org/zap"
)

type PostgresBoxRepository struct {
	*BaseRepository
}

func NewBoxRepository(zapLogger *zap.Logger) repository.BoxRepository {
	return &PostgresBoxRepository{
		BaseRepository: NewBaseRepository(zapLogger),
	}
}

func (r *PostgresBoxRepository) Create(ctx context.Context, box *model.Box) error {
	err := r.database.WithContext(ctx).Create(box).Error
	if err != nil {
		r.logger.Error(ctx, "failed to create box: %v", err)
	}
	return err
}

func (r *PostgresBoxRepository) GetByID(ctx context.Context, id string) (*model.Box, error) {
	var box model.Box
	err := r.database.WithContext(ctx).
		Where("id = ?", id).
		First(&box).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &box, nil
}

func (r *PostgresBoxRepository) GetAll(ctx context.Context) ([]*model.Box, error) {
	var boxes []*model.Box
	err := r.database.WithContext(ctx).
		Order("created_at ASC").
		Find(&boxes).Error
	if err != nil {
		return nil, err
	}
	return boxes, nil
}

func (r *PostgresBoxRepository) Delete(ctx context.Context, id string) error {
	result := r.database.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Box{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return RecordNotFound
	}
	return nil
}
