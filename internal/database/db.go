package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-pos-mart/internal/config"
	"go-pos-mart/internal/logger"
	"go-pos-mart/internal/models"
)

// Dialector picks the GORM driver for a relational store driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("database: %q is not a relational driver", driver)
	}
}

// Connect opens the relational store, retrying while the server comes up,
// and syncs the schema.
func Connect(cfg config.StoreConfig, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         logger.NewGormLogger(log, logger.GormLevel(logLevel)),
		TranslateError: true,
	}

	// 1. Connect with GORM (Wait for DB to be ready)
	var db *gorm.DB
	for i := 0; i < cfg.ConnectRetries; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying",
			zap.String("driver", cfg.Driver),
			zap.Int("attempt", i+1),
			zap.Int("of", cfg.ConnectRetries),
			zap.Error(err))
		time.Sleep(cfg.ConnectWait)
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", cfg.ConnectRetries, err)
	}

	// 2. SQLite allows a single writer; one connection keeps :memory: shared too
	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	// 3. Auto-Migrate
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database connected, schema synced", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
	); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}
