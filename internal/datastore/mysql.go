package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/logger"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	if settings.Output.MySQL.Host == "" {
		return validationError("mysql host must not be empty", "output.mysql.host", "")
	}
	if settings.Output.MySQL.Database == "" {
		return validationError("mysql database must not be empty", "output.mysql.database", "")
	}
	return nil
}

// dsn builds the go-sql-driver connection string
func (store *MySQLStore) dsn() string {
	cfg := store.Settings.Output.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// Open sets up the MySQL database connection and migrates the schema
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	cfg := store.Settings.Output.MySQL
	db, err := gorm.Open(mysql.Open(store.dsn()), gormConfig(store.Settings.Debug))
	if err != nil {
		GetLogger().Error("Failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.String("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return dbError(err, "open", "", "db_type", "mysql", "host", cfg.Host)
	}

	store.DB = db
	store.updateConnectionStats()
	return performAutoMigration(db, "MySQL")
}

// Close closes the MySQL database connections
func (store *MySQLStore) Close() error {
	if err := store.closeDB(); err != nil {
		GetLogger().Error("Failed to close MySQL database", logger.Error(err))
		return err
	}
	if store.Settings.Debug {
		GetLogger().Debug("MySQL database connection closed")
	}
	return nil
}
