package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the relational store selected by driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return ConnectPostgres(dsn)
	case "sqlite":
		return ConnectSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}
