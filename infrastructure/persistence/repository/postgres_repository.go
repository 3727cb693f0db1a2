package repository

import (
	"errors"

	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	RecordNotFound = errors.New("Record not found")
	Rollback       = errors.New("Rollback")
)

// BaseRepository carries the shared gorm handle and logger for the
// postgres repositories.
type BaseRepository struct {
	database *gorm.DB
	logger   *logger.GormZapLogger
}

func NewBaseRepository(zapLogger *zap.Logger) *BaseRepository {
	return &BaseRepository{
		database: database.GetDb(),
		logger:   logger.NewGormLogger(zapLogger),
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RecordNotFound
	}
	return err
}
