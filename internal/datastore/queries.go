package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

// SaveQuery inserts a new saved query, or updates it when ID is set.
func (ds *DataStore) SaveQuery(ctx context.Context, query *BrokerQuery) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelCreate, metrics.TableQueries, start, err) }()

	if query == nil {
		return validationError("query must not be nil", "query", nil)
	}
	query.Name = strings.TrimSpace(query.Name)
	if query.Name == "" {
		return validationError("query name must not be empty", "name", query.Name)
	}
	if query.Broker == "" {
		return validationError("query broker must not be empty", "broker", query.Broker)
	}

	db, err := ds.db(ctx, "save_query")
	if err != nil {
		return err
	}

	if err := db.Save(query).Error; err != nil {
		if isDuplicateKey(err) {
			return conflictError(err, "query", query.Name)
		}
		return dbError(err, "save_query", metrics.TableQueries, "name", query.Name)
	}
	return nil
}

// GetQuery returns a saved query.
func (ds *DataStore) GetQuery(ctx context.Context, id uint) (query *BrokerQuery, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelGet, metrics.TableQueries, start, err) }()

	db, err := ds.db(ctx, "get_query")
	if err != nil {
		return nil, err
	}

	var q BrokerQuery
	if err := db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("query", id)
		}
		return nil, dbError(err, "get_query", metrics.TableQueries, "id", id)
	}
	return &q, nil
}

// ListQueries returns every saved query, most recently modified first.
func (ds *DataStore) ListQueries(ctx context.Context) (queries []BrokerQuery, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelList, metrics.TableQueries, start, err) }()

	db, err := ds.db(ctx, "list_queries")
	if err != nil {
		return nil, err
	}

	if err := db.Order("modified DESC").Order("id DESC").Find(&queries).Error; err != nil {
		return nil, dbError(err, "list_queries", metrics.TableQueries)
	}
	return queries, nil
}

// MarkQueryRun records when a saved query was last executed.
func (ds *DataStore) MarkQueryRun(ctx context.Context, id uint, at time.Time) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelUpdate, metrics.TableQueries, start, err) }()

	db, err := ds.db(ctx, "mark_query_run")
	if err != nil {
		return err
	}

	at = at.UTC()
	res := db.Model(&BrokerQuery{}).Where("id = ?", id).Update("last_run", &at)
	if res.Error != nil {
		return dbError(res.Error, "mark_query_run", metrics.TableQueries, "id", id)
	}
	if res.RowsAffected == 0 {
		return notFoundError("query", id)
	}
	return nil
}
