package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

type StagingModel struct {
	ID            int       `gorm:"primary_key" json:"id"`
	VersionId     int       `gorm:"not null;uniqueIndex:idx_staging_model_version_code" json:"version_id"`
	VehicleLineId int       `gorm:"not null;index" json:"vehicle_line_id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Code          string    `gorm:"size:50;not null;uniqueIndex:idx_staging_model_version_code" json:"code"`
	ReleaseYear   int       `json:"release_year"`
	Price         int64     `gorm:"not null;default:0" json:"price"`
	IsForeign     bool      `gorm:"not null;default:false" json:"is_foreign"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStagingModel struct {
	VehicleLineId int    `json:"vehicle_line_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Code          string `json:"code" binding:"required"`
	ReleaseYear   int    `json:"release_year"`
	Price         int64  `json:"price"`
	IsForeign     bool   `json:"is_foreign"`
}

func ensureStagingLineInVersion(ctx context.Context, tx *gorm.DB, versionId int, lineId int) error {
	var count int64
	err := tx.WithContext(ctx).Model(&StagingVehicleLine{}).
		Where("version_id = ? AND id = ?", versionId, lineId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorMissingParent
	}
	return nil
}

func CreateStagingModel(ctx context.Context, versionId int, input *NewStagingModel) (*StagingModel, error) {
	db := config.GetDB()
	var model *StagingModel
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		if err := ensureStagingLineInVersion(ctx, tx, versionId, input.VehicleLineId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingModel{}).
			Where("version_id = ? AND code = ?", versionId, input.Code).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		model = &StagingModel{
			VersionId:     versionId,
			VehicleLineId: input.VehicleLineId,
			Name:          input.Name,
			Code:          input.Code,
			ReleaseYear:   input.ReleaseYear,
			Price:         input.Price,
			IsForeign:     input.IsForeign,
		}
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, model.ID, "StagingModel", nil, model,
			fmt.Sprintf("staging model %q created in version %d", model.Code, versionId))
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// FindOrCreateStagingModel keys on (version, code). A matching code under a
// different vehicle line is treated as the same model moving lines and is
// updated in place.
func FindOrCreateStagingModel(ctx context.Context, tx *gorm.DB, versionId int, input *NewStagingModel) (*StagingModel, bool, error) {
	var model StagingModel
	err := tx.WithContext(ctx).
		Where("version_id = ? AND code = ?", versionId, input.Code).
		First(&model).Error
	if err == nil {
		updates := map[string]interface{}{}
		if input.Name != "" && input.Name != model.Name {
			updates["name"] = input.Name
		}
		if input.VehicleLineId != 0 && input.VehicleLineId != model.VehicleLineId {
			updates["vehicle_line_id"] = input.VehicleLineId
		}
		if input.ReleaseYear != 0 && input.ReleaseYear != model.ReleaseYear {
			updates["release_year"] = input.ReleaseYear
		}
		if input.Price != 0 && input.Price != model.Price {
			updates["price"] = input.Price
		}
		if input.IsForeign != model.IsForeign {
			updates["is_foreign"] = input.IsForeign
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(&model).Updates(updates).Error; err != nil {
				return nil, false, err
			}
		}
		return &model, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err := ensureStagingLineInVersion(ctx, tx, versionId, input.VehicleLineId); err != nil {
		return nil, false, err
	}
	model = StagingModel{
		VersionId:     versionId,
		VehicleLineId: input.VehicleLineId,
		Name:          input.Name,
		Code:          input.Code,
		ReleaseYear:   input.ReleaseYear,
		Price:         input.Price,
		IsForeign:     input.IsForeign,
	}
	if err := tx.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, false, err
	}
	return &model, true, nil
}

func GetStagingModel(ctx context.Context, versionId int, id int) (*StagingModel, error) {
	return utils.FetchVersionModel[StagingModel](ctx, versionId, id)
}

func ListStagingModels(ctx context.Context, versionId int, vehicleLineId int) ([]*StagingModel, error) {
	db := config.GetDB().WithContext(ctx).Where("version_id = ?", versionId)
	if vehicleLineId > 0 {
		db = db.Where("vehicle_line_id = ?", vehicleLineId)
	}
	var modelRows []*StagingModel
	if err := db.Order("code ASC").Find(&modelRows).Error; err != nil {
		return nil, err
	}
	return modelRows, nil
}

func UpdateStagingModel(ctx context.Context, versionId int, id int, input *NewStagingModel) (*StagingModel, error) {
	db := config.GetDB()
	var model *StagingModel
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var err error
		model, err = utils.FetchVersionModel[StagingModel](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := ensureStagingLineInVersion(ctx, tx, versionId, input.VehicleLineId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingModel{}).
			Where("version_id = ? AND code = ? AND id <> ?", versionId, input.Code, id).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		before := *model
		if err := tx.Model(model).Updates(map[string]interface{}{
			"vehicle_line_id": input.VehicleLineId,
			"name":            input.Name,
			"code":            input.Code,
			"release_year":    input.ReleaseYear,
			"price":           input.Price,
			"is_foreign":      input.IsForeign,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionUpdate, model.ID, "StagingModel", &before, model,
			fmt.Sprintf("staging model %q updated in version %d", model.Code, versionId))
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

func DeleteStagingModel(ctx context.Context, versionId int, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		model, err := utils.FetchVersionModel[StagingModel](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := deleteStagingModelTree(ctx, tx, versionId, []int{id}); err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "StagingModel", model, nil,
			fmt.Sprintf("staging model %q deleted from version %d", model.Code, versionId))
	})
}

func deleteStagingModelTree(ctx context.Context, tx *gorm.DB, versionId int, modelIds []int) error {
	if len(modelIds) == 0 {
		return nil
	}
	var trimIds []int
	if err := tx.WithContext(ctx).Model(&StagingTrim{}).
		Where("version_id = ? AND model_id IN ?", versionId, modelIds).
		Pluck("id", &trimIds).Error; err != nil {
		return err
	}
	if err := deleteStagingTrimTree(ctx, tx, versionId, trimIds); err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("version_id = ? AND id IN ?", versionId, modelIds).
		Delete(&StagingModel{}).Error
}
