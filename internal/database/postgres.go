package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/devpokerapp/devpoker-services/internal/config"
	"github.com/devpokerapp/devpoker-services/internal/model"
)

// New opens the PostgreSQL connection, configures the pool and runs
// migrations.
func New(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL is not configured")
	}

	logLevel := logger.Silent
	if cfg.Server.Env == "dev" || cfg.Server.Env == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted entity.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Session{},
		&model.Item{},
		&model.Round{},
		&model.Vote{},
		&model.Participant{},
		&model.Event{},
		&model.Invite{},
	); err != nil {
		return err
	}

	createIndexes(db)
	return nil
}

func createIndexes(db *gorm.DB) {
	// Reconnection lookups resolve the newest participant row per
	// connection id.
	db.Exec(`CREATE INDEX IF NOT EXISTS idx_participants_connection_updated
		ON participants (connection_id, updated_at DESC)`)

	// Activity-log listings are always per item in creation order.
	db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_item_created_at
		ON events (item_id, created_at)`)
}
