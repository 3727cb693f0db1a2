package repository

import (
	"context"

	"github.com/sortline/sortline/api/domain/model"
)

type BoxRepository interface {
	Create(ctx context.Context, box *model.Box) error
	GetByID(ctx context.Context, id string) (*model.Box, error)
	GetAll(ctx context.Context) ([]*model.Box, error)
	Delete(ctx context.Context, id string) error
}
