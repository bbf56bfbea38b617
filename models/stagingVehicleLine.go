package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

type StagingVehicleLine struct {
	ID          int       `gorm:"primary_key" json:"id"`
	VersionId   int       `gorm:"not null;uniqueIndex:idx_staging_line_scope" json:"version_id"`
	BrandId     int       `gorm:"not null;uniqueIndex:idx_staging_line_scope;index" json:"brand_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_staging_line_scope" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStagingVehicleLine struct {
	BrandId     int    `json:"brand_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// parent must exist inside the same version
func ensureStagingBrandInVersion(ctx context.Context, tx *gorm.DB, versionId int, brandId int) error {
	var count int64
	err := tx.WithContext(ctx).Model(&StagingBrand{}).
		Where("version_id = ? AND id = ?", versionId, brandId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorMissingParent
	}
	return nil
}

func CreateStagingVehicleLine(ctx context.Context, versionId int, input *NewStagingVehicleLine) (*StagingVehicleLine, error) {
	db := config.GetDB()
	var line *StagingVehicleLine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		if err := ensureStagingBrandInVersion(ctx, tx, versionId, input.BrandId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingVehicleLine{}).
			Where("version_id = ? AND brand_id = ? AND name = ?", versionId, input.BrandId, input.Name).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		line = &StagingVehicleLine{
			VersionId:   versionId,
			BrandId:     input.BrandId,
			Name:        input.Name,
			Description: input.Description,
		}
		if err := tx.Create(line).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, line.ID, "StagingVehicleLine", nil, line,
			fmt.Sprintf("staging vehicle line %q created in version %d", line.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func FindOrCreateStagingVehicleLine(ctx context.Context, tx *gorm.DB, versionId int, input *NewStagingVehicleLine) (*StagingVehicleLine, bool, error) {
	var line StagingVehicleLine
	err := tx.WithContext(ctx).
		Where("version_id = ? AND brand_id = ? AND name = ?", versionId, input.BrandId, input.Name).
		First(&line).Error
	if err == nil {
		if input.Description != "" && input.Description != line.Description {
			if err := tx.WithContext(ctx).Model(&line).
				Update("description", input.Description).Error; err != nil {
				return nil, false, err
			}
		}
		return &line, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err := ensureStagingBrandInVersion(ctx, tx, versionId, input.BrandId); err != nil {
		return nil, false, err
	}
	line = StagingVehicleLine{
		VersionId:   versionId,
		BrandId:     input.BrandId,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, false, err
	}
	return &line, true, nil
}

func GetStagingVehicleLine(ctx context.Context, versionId int, id int) (*StagingVehicleLine, error) {
	return utils.FetchVersionModel[StagingVehicleLine](ctx, versionId, id)
}

func ListStagingVehicleLines(ctx context.Context, versionId int, brandId int) ([]*StagingVehicleLine, error) {
	db := config.GetDB().WithContext(ctx).Where("version_id = ?", versionId)
	if brandId > 0 {
		db = db.Where("brand_id = ?", brandId)
	}
	var lines []*StagingVehicleLine
	if err := db.Order("name ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func UpdateStagingVehicleLine(ctx context.Context, versionId int, id int, input *NewStagingVehicleLine) (*StagingVehicleLine, error) {
	db := config.GetDB()
	var line *StagingVehicleLine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var err error
		line, err = utils.FetchVersionModel[StagingVehicleLine](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := ensureStagingBrandInVersion(ctx, tx, versionId, input.BrandId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingVehicleLine{}).
			Where("version_id = ? AND brand_id = ? AND name = ? AND id <> ?", versionId, input.BrandId, input.Name, id).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		before := *line
		if err := tx.Model(line).Updates(map[string]interface{}{
			"brand_id":    input.BrandId,
			"name":        input.Name,
			"description": input.Description,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionUpdate, line.ID, "StagingVehicleLine", &before, line,
			fmt.Sprintf("staging vehicle line %q updated in version %d", line.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func DeleteStagingVehicleLine(ctx context.Context, versionId int, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		line, err := utils.FetchVersionModel[StagingVehicleLine](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := deleteStagingLineTree(ctx, tx, versionId, []int{id}); err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "StagingVehicleLine", line, nil,
			fmt.Sprintf("staging vehicle line %q deleted from version %d", line.Name, versionId))
	})
}

func deleteStagingLineTree(ctx context.Context, tx *gorm.DB, versionId int, lineIds []int) error {
	if len(lineIds) == 0 {
		return nil
	}
	var modelIds []int
	if err := tx.WithContext(ctx).Model(&StagingModel{}).
		Where("version_id = ? AND vehicle_line_id IN ?", versionId, lineIds).
		Pluck("id", &modelIds).Error; err != nil {
		return err
	}
	if err := deleteStagingModelTree(ctx, tx, versionId, modelIds); err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("version_id = ? AND id IN ?", versionId, lineIds).
		Delete(&StagingVehicleLine{}).Error
}
