package database

import (
	"fmt"
	"log/slog"
	"time"

	"sitedesk-backend/internal/config"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
	"sitedesk-backend/internal/store/gormstore"
	"sitedesk-backend/internal/store/memory"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models is every table the backend owns, in migration order.
var Models = []any{
	&models.User{},
	&models.Site{},
	&models.Material{},
	&models.MaterialTransaction{},
	&models.Worker{},
	&models.Attendance{},
	&models.Expense{},
	&models.Photo{},
	&models.Note{},
	&models.AuditLog{},
}

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// one attendance row per worker and day
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_worker_date ON attendance (worker_id, date)",
	).Error; err != nil {
		return fmt.Errorf("attendance index: %w", err)
	}
	return nil
}

// NewStore builds the store selected by database.driver.
func NewStore(cfg *config.Config, log *slog.Logger) (*store.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Info("using in-memory store")
		return memory.New(time.Now), nil
	case "postgres":
		db, err := Open(cfg.Database.DSN, cfg.App.Env == "dev")
		if err != nil {
			return nil, err
		}
		log.Info("database connected, migration finished")
		return gormstore.New(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
