package utils

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
)

// check if id exists, return RecordNotFound error otherwise
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, 0, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// ValidateUnique checks for an existing row with column = value; versionId
// scopes the check to one version's staging tree (0 means a global column,
// e.g. version names or main-catalog model codes).
func ValidateUnique[T any](ctx context.Context, versionId int, column string, value interface{}, exceptId int) error {
	var count int64
	var err error
	if exceptId == 0 {
		count, err = ResourceCountWhere[T](ctx, versionId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, versionId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE version_id = ? AND $condition
// versionId can be 0 for unscoped tables
func ResourceCountWhere[T any](ctx context.Context, versionId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if versionId != 0 {
		dbCtx = dbCtx.Where("version_id = ?", versionId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
