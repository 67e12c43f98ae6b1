package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the store named by driver ("postgres" or "sqlite").
// dsn is a postgres DSN or a sqlite file path.
func Open(driver, dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return ConnectPostgres(dsn, gormLogger)
	case "sqlite":
		return ConnectSQLite(dsn, gormLogger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
