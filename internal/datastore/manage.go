package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/logger"
)

// gormConfig builds the gorm configuration shared by both backends.
func gormConfig(debug bool) *gorm.Config {
	slow := 200 * time.Millisecond
	if debug {
		slow = 50 * time.Millisecond
	}
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(GetLogger(), slow),
		TranslateError: true,
	}
}

// performAutoMigration creates or updates every table. The modified columns
// of TargetName and TargetList are autoUpdateTime fields, so gorm refreshes
// them on each save.
func performAutoMigration(db *gorm.DB, dbType string) error {
	migrationStart := time.Now()
	migrationLogger := GetLogger().With(logger.String("db_type", dbType))

	migrationLogger.Debug("Starting database migration")

	models := allModels()
	if err := db.AutoMigrate(models...); err != nil {
		migrationLogger.Error("Database migration failed", logger.Error(err))
		return dbError(err, "migrate", "", "db_type", dbType)
	}

	migrationLogger.Debug("Database migration completed successfully",
		logger.Duration("total_duration", time.Since(migrationStart)),
		logger.Int("tables_migrated", len(models)))

	return nil
}
