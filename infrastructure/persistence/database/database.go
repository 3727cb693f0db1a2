package database

import (
	"fmt"
	"sync"

	"github.com/sortline/sortline/api/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db   *gorm.DB
	once sync.Once
)

func InitDb(cfg *config.Config) error {
	var initErr error

	once.Do(func() {
		conn, err := gorm.Open(postgres.Open(cfg.GetPostgresConnectionString()), &gorm.Config{})
		if err != nil {
			initErr = fmt.Errorf("failed to open postgres connection: %w", err)
			return
		}

		sqlDb, err := conn.DB()
		if err != nil {
			initErr = fmt.Errorf("failed to access underlying sql.DB: %w", err)
			return
		}

		sqlDb.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		sqlDb.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDb.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

		if err := sqlDb.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping postgres: %w", err)
			return
		}

		db = conn
	})

	return initErr
}

func GetDb() *gorm.DB {
	return db
}

// SetDb swaps the shared connection. Tests use it with an in-memory SQLite
// database.
func SetDb(conn *gorm.DB) {
	db = conn
}

func CloseDb() error {
	if db == nil {
		return nil
	}
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
