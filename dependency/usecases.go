package dependency

import (
	"time"

	boxUseCase "github.com/sortline/sortline/api/application/usecases/box"
	changeLogUseCase "github.com/sortline/sortline/api/application/usecases/changelog"
	parcelUseCase "github.com/sortline/sortline/api/application/usecases/parcel"
	statusUseCase "github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/infrastructure/cache"
)

func (c *Container) initUseCases() {
	c.BoxCache = cache.NewCache(time.Minute)

	c.StatusUC = statusUseCase.NewStatusUseCase(c.ParcelRepo, c.Logger, c.MetricsManager)
	c.ParcelUC = parcelUseCase.NewParcelUseCase(c.ParcelRepo, c.BoxRepo, c.StatusUC, c.Logger)
	c.BoxUC = boxUseCase.NewBoxUseCase(c.BoxRepo, c.BoxCache, c.Logger)
	c.ChangeLogUC = changeLogUseCase.NewChangeLogUseCase(c.AuditRepo, c.Logger)

	c.Logger.Info("Use cases initialized successfully")
}
