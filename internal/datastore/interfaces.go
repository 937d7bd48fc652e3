// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	CreateTarget(ctx context.Context, target *Target) error
	GetTarget(ctx context.Context, id uint) (*Target, error)
	GetTargetByName(ctx context.Context, name string) (*Target, error)
	ListTargets(ctx context.Context, limit, offset int) ([]Target, error)
	AddTargetName(ctx context.Context, targetID uint, name string) (*TargetName, error)

	CreateTargetList(ctx context.Context, name string) (*TargetList, error)
	AddTargetToList(ctx context.Context, listID, targetID uint) error
	GetTargetList(ctx context.Context, id uint) (*TargetList, error)

	SaveQuery(ctx context.Context, query *BrokerQuery) error
	GetQuery(ctx context.Context, id uint) (*BrokerQuery, error)
	ListQueries(ctx context.Context) ([]BrokerQuery, error)
	MarkQueryRun(ctx context.Context, id uint, at time.Time) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB // GORM database instance
	metrics *Metrics
}

// New creates the store selected by the output settings. It does not open
// the connection.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("no datastore backend enabled").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// db returns the handle bound to ctx, or an error before Open.
func (ds *DataStore) db(ctx context.Context, operation string) (*gorm.DB, error) {
	if ds.DB == nil {
		return nil, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Context("operation", operation).
			Build()
	}
	return ds.DB.WithContext(ctx), nil
}

// closeDB releases the pooled connections.
func (ds *DataStore) closeDB() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", "")
	}
	ds.DB = nil
	return nil
}
