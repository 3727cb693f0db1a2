package box

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"go.uber.org/zap"
)

const boxCacheTTL = 5 * time.Minute

type BoxUseCase interface {
	Create(ctx context.Context, name, description string) (*model.Box, error)
	GetByID(ctx context.Context, id string) (*model.Box, error)
	GetAll(ctx context.Context) ([]*model.Box, error)
	Delete(ctx context.Context, id string) error
}

type boxUseCase struct {
	repository repository.BoxRepository
	cache      *cache.Cache
	logger     *logger.Logger
}

func NewBoxUseCase(repository repository.BoxRepository, cache *cache.Cache, logger *logger.Logger) BoxUseCase {
	return &boxUseCase{
		repository: repository,
		cache:      cache,
		logger:     logger,
	}
}

func (uc *boxUseCase) Create(ctx context.Context, name, description string) (*model.Box, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("box name cannot be empty")
	}

	now := time.Now().UTC()
	box := &model.Box{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description != "" {
		box.Description = sql.NullString{String: description, Valid: true}
	}

	if err := uc.repository.Create(ctx, box); err != nil {
		uc.logger.Error("failed to create box", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to create box: %w", err)
	}

	uc.cache.Set(cacheKey(box.ID), box, boxCacheTTL)
	return box, nil
}

func (uc *boxUseCase) GetByID(ctx context.Context, id string) (*model.Box, error) {
	if cached, ok := uc.cache.Get(cacheKey(id)); ok {
		if box, ok := cached.(*model.Box); ok {
			return box, nil
		}
	}

	box, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cache.Set(cacheKey(id), box, boxCacheTTL)
	return box, nil
}

func (uc *boxUseCase) GetAll(ctx context.Context) ([]*model.Box, error) {
	return uc.repository.GetAll(ctx)
}

func (uc *boxUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repository.Delete(ctx, id); err != nil {
		return err
	}

	uc.cache.Delete(cacheKey(id))
	uc.logger.Info("box deleted", zap.String("boxID", id))
	return nil
}

func cacheKey(id string) string {
	return "box:" + id
}
