package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// CreateTarget inserts a new target. A name already in use yields a
// CategoryConflict error; coordinates are stored as given.
func (ds *DataStore) CreateTarget(ctx context.Context, target *Target) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelCreate, metrics.TableTargets, start, err) }()

	if target == nil {
		return validationError("target must not be nil", "target", nil)
	}
	target.Name = strings.TrimSpace(target.Name)
	if target.Name == "" {
		return validationError("target name must not be empty", "name", target.Name)
	}
	if target.Type == "" {
		target.Type = TargetSidereal
	}

	db, err := ds.db(ctx, "create_target")
	if err != nil {
		return err
	}

	if err := db.Create(target).Error; err != nil {
		if isDuplicateKey(err) {
			return conflictError(err, "target", target.Name)
		}
		return dbError(err, "create_target", metrics.TableTargets, "name", target.Name)
	}

	GetLogger().Info("target created",
		logger.Int("id", int(target.ID)),
		logger.String("name", target.Name),
		logger.Float64("ra", target.RA),
		logger.Float64("dec", target.Dec))
	return nil
}

// GetTarget returns a target with its aliases.
func (ds *DataStore) GetTarget(ctx context.Context, id uint) (target *Target, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelGet, metrics.TableTargets, start, err) }()

	db, err := ds.db(ctx, "get_target")
	if err != nil {
		return nil, err
	}

	var t Target
	if err := db.Preload("Aliases").First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("target", id)
		}
		return nil, dbError(err, "get_target", metrics.TableTargets, "id", id)
	}
	return &t, nil
}

// GetTargetByName looks a target up by its primary name or any alias.
func (ds *DataStore) GetTargetByName(ctx context.Context, name string) (target *Target, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelGet, metrics.TableTargets, start, err) }()

	db, err := ds.db(ctx, "get_target_by_name")
	if err != nil {
		return nil, err
	}

	var t Target
	err = db.Preload("Aliases").
		Where("name = ?", name).
		Or("id IN (?)", db.Model(&TargetName{}).Select("target_id").Where("name = ?", name)).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("target", name)
		}
		return nil, dbError(err, "get_target_by_name", metrics.TableTargets, "name", name)
	}
	return &t, nil
}

// ListTargets returns targets newest first. A non-positive limit selects the
// default page size.
func (ds *DataStore) ListTargets(ctx context.Context, limit, offset int) (targets []Target, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelList, metrics.TableTargets, start, err) }()

	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	db, err := ds.db(ctx, "list_targets")
	if err != nil {
		return nil, err
	}

	if err := db.Order("created DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&targets).Error; err != nil {
		return nil, dbError(err, "list_targets", metrics.TableTargets)
	}
	if ds.metrics != nil {
		ds.metrics.RecordQueryResultSize(metrics.LabelList, metrics.TableTargets, len(targets))
	}
	return targets, nil
}

// AddTargetName attaches an alias to an existing target.
func (ds *DataStore) AddTargetName(ctx context.Context, targetID uint, name string) (alias *TargetName, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.LabelCreate, metrics.TableTargetNames, start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("alias must not be empty", "name", name)
	}

	db, err := ds.db(ctx, "add_target_name")
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&Target{}).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return nil, dbError(err, "add_target_name", metrics.TableTargets, "target_id", targetID)
	}
	if count == 0 {
		return nil, notFoundError("target", targetID)
	}

	alias = &TargetName{TargetID: targetID, Name: name}
	if err := db.Create(alias).Error; err != nil {
		return nil, dbError(err, "add_target_name", metrics.TableTargetNames, "target_id", targetID)
	}
	return alias, nil
}
