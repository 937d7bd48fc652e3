package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

// CreateTargetList creates an empty, uniquely named list.
func (ds *DataStore) CreateTargetList(ctx context.Context, name string) (list *TargetList, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelCreate, metrics.TableTargetLists, start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("list name must not be empty", "name", name)
	}

	db, err := ds.db(ctx, "create_target_list")
	if err != nil {
		return nil, err
	}

	list = &TargetList{Name: name}
	if err := db.Create(list).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, conflictError(err, "target list", name)
		}
		return nil, dbError(err, "create_target_list", metrics.TableTargetLists, "name", name)
	}
	return list, nil
}

// AddTargetToList adds a target to a list and bumps the list's modified time.
// Adding a target twice is a no-op.
func (ds *DataStore) AddTargetToList(ctx context.Context, listID, targetID uint) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelUpdate, metrics.TableTargetLists, start, err) }()

	db, err := ds.db(ctx, "add_target_to_list")
	if err != nil {
		return err
	}

	var list TargetList
	if err := db.First(&list, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("target list", listID)
		}
		return dbError(err, "add_target_to_list", metrics.TableTargetLists, "list_id", listID)
	}

	var target Target
	if err := db.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("target", targetID)
		}
		return dbError(err, "add_target_to_list", metrics.TableTargets, "target_id", targetID)
	}

	if err := db.Model(&list).Association("Targets").Append(&target); err != nil {
		return dbError(err, "add_target_to_list", metrics.TableTargetLists, "list_id", listID)
	}

	// association writes do not touch the owner row
	if err := db.Model(&list).Update("modified", time.Now()).Error; err != nil {
		return dbError(err, "add_target_to_list", metrics.TableTargetLists, "list_id", listID)
	}
	return nil
}

// GetTargetList returns a list with its targets.
func (ds *DataStore) GetTargetList(ctx context.Context, id uint) (list *TargetList, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelGet, metrics.TableTargetLists, start, err) }()

	db, err := ds.db(ctx, "get_target_list")
	if err != nil {
		return nil, err
	}

	var l TargetList
	if err := db.Preload("Targets").First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("target list", id)
		}
		return nil, dbError(err, "get_target_list", metrics.TableTargetLists, "id", id)
	}
	return &l, nil
}
