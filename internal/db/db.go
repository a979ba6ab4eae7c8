// Package db opens the configured database, applies the schema and seeds
// the demo accounts.
package db

import (
	"fmt"
	"time"

	"github.com/diabetecam/diabetecam/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Dialector picks the gorm driver for the configured backend.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.DSN()), nil
	case config.BackendPostgres:
		return postgres.Open(NormalizeDSN(cfg.DSN())), nil
	case config.BackendMySQL:
		return mysql.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}

// Open connects with retries, since networked databases may still be starting.
// gorm logs through zap: failed queries always, every statement when cfg.Debug
// is set.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Error
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: newGormLogger(log, logLevel)}

	attempts := connectAttempts
	if cfg.Backend == config.BackendSQLite {
		attempts = 1
	}
	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Info("database connected",
		zap.String("backend", cfg.Backend),
		zap.String("dsn", MaskDSN(cfg.DSN())))
	return db, nil
}
