package dependency

import (
	"github.com/sortline/sortline/api/infrastructure/persistence/repository"
)

func (c *Container) initRepositories() {
	c.ParcelRepo = repository.NewParcelRepository(c.Logger.Log)
	c.AuditRepo = repository.NewAuditEntryRepository(c.Logger.Log)
	c.BoxRepo = repository.NewBoxRepository(c.Logger.Log)

	c.Logger.Info("Repositories initialized successfully")
}
