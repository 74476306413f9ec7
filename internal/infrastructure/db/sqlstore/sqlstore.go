// Package sqlstore keeps users in a relational database through gorm.
// PostgreSQL backs deployments and SQLite backs single-node runs and tests.
package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

type Config struct {
	Dialect Dialect
	DSN     string
	// Verbose enables gorm's own warning log.
	Verbose bool
}

// Open connects to the configured database and migrates the users table.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case Postgres:
		dialector = postgres.Open(cfg.DSN)
	case SQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", cfg.Dialect)
	}

	level := gormlogger.Silent
	if cfg.Verbose {
		level = gormlogger.Warn
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore open: %w", err)
	}

	if cfg.Dialect == SQLite {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlstore open: %w", err)
		}
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := gdb.AutoMigrate(&userRecord{}); err != nil {
		_ = Close(gdb)
		return nil, fmt.Errorf("sqlstore migrate: %w", err)
	}
	return gdb, nil
}

// Ping checks that the underlying connection pool can reach the database.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
