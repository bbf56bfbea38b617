package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

type StagingTrim struct {
	ID          int       `gorm:"primary_key" json:"id"`
	VersionId   int       `gorm:"not null;uniqueIndex:idx_staging_trim_scope" json:"version_id"`
	ModelId     int       `gorm:"not null;uniqueIndex:idx_staging_trim_scope;index" json:"model_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_staging_trim_scope" json:"name"`
	CarType     string    `gorm:"size:50" json:"car_type"`
	FuelName    string    `gorm:"size:50" json:"fuel_name"`
	Cc          int       `json:"cc"`
	BasePrice   int64     `gorm:"not null;default:0" json:"base_price"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStagingTrim struct {
	ModelId     int    `json:"model_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CarType     string `json:"car_type"`
	FuelName    string `json:"fuel_name"`
	Cc          int    `json:"cc"`
	BasePrice   int64  `json:"base_price"`
	Description string `json:"description"`
}

func ensureStagingModelInVersion(ctx context.Context, tx *gorm.DB, versionId int, modelId int) error {
	var count int64
	err := tx.WithContext(ctx).Model(&StagingModel{}).
		Where("version_id = ? AND id = ?", versionId, modelId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorMissingParent
	}
	return nil
}

func CreateStagingTrim(ctx context.Context, versionId int, input *NewStagingTrim) (*StagingTrim, error) {
	db := config.GetDB()
	var trim *StagingTrim
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		if err := ensureStagingModelInVersion(ctx, tx, versionId, input.ModelId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingTrim{}).
			Where("version_id = ? AND model_id = ? AND name = ?", versionId, input.ModelId, input.Name).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		trim = &StagingTrim{
			VersionId:   versionId,
			ModelId:     input.ModelId,
			Name:        input.Name,
			CarType:     input.CarType,
			FuelName:    input.FuelName,
			Cc:          input.Cc,
			BasePrice:   input.BasePrice,
			Description: input.Description,
		}
		if err := tx.Create(trim).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, trim.ID, "StagingTrim", nil, trim,
			fmt.Sprintf("staging trim %q created in version %d", trim.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return trim, nil
}

func FindOrCreateStagingTrim(ctx context.Context, tx *gorm.DB, versionId int, input *NewStagingTrim) (*StagingTrim, bool, error) {
	var trim StagingTrim
	err := tx.WithContext(ctx).
		Where("version_id = ? AND model_id = ? AND name = ?", versionId, input.ModelId, input.Name).
		First(&trim).Error
	if err == nil {
		updates := map[string]interface{}{}
		if input.CarType != "" && input.CarType != trim.CarType {
			updates["car_type"] = input.CarType
		}
		if input.FuelName != "" && input.FuelName != trim.FuelName {
			updates["fuel_name"] = input.FuelName
		}
		if input.Cc != 0 && input.Cc != trim.Cc {
			updates["cc"] = input.Cc
		}
		if input.BasePrice != 0 && input.BasePrice != trim.BasePrice {
			updates["base_price"] = input.BasePrice
		}
		if input.Description != "" && input.Description != trim.Description {
			updates["description"] = input.Description
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(&trim).Updates(updates).Error; err != nil {
				return nil, false, err
			}
		}
		return &trim, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err := ensureStagingModelInVersion(ctx, tx, versionId, input.ModelId); err != nil {
		return nil, false, err
	}
	trim = StagingTrim{
		VersionId:   versionId,
		ModelId:     input.ModelId,
		Name:        input.Name,
		CarType:     input.CarType,
		FuelName:    input.FuelName,
		Cc:          input.Cc,
		BasePrice:   input.BasePrice,
		Description: input.Description,
	}
	if err := tx.WithContext(ctx).Create(&trim).Error; err != nil {
		return nil, false, err
	}
	return &trim, true, nil
}

func GetStagingTrim(ctx context.Context, versionId int, id int) (*StagingTrim, error) {
	return utils.FetchVersionModel[StagingTrim](ctx, versionId, id)
}

func ListStagingTrims(ctx context.Context, versionId int, modelId int) ([]*StagingTrim, error) {
	db := config.GetDB().WithContext(ctx).Where("version_id = ?", versionId)
	if modelId > 0 {
		db = db.Where("model_id = ?", modelId)
	}
	var trims []*StagingTrim
	if err := db.Order("name ASC").Find(&trims).Error; err != nil {
		return nil, err
	}
	return trims, nil
}

func UpdateStagingTrim(ctx context.Context, versionId int, id int, input *NewStagingTrim) (*StagingTrim, error) {
	db := config.GetDB()
	var trim *StagingTrim
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var err error
		trim, err = utils.FetchVersionModel[StagingTrim](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := ensureStagingModelInVersion(ctx, tx, versionId, input.ModelId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingTrim{}).
			Where("version_id = ? AND model_id = ? AND name = ? AND id <> ?", versionId, input.ModelId, input.Name, id).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		before := *trim
		if err := tx.Model(trim).Updates(map[string]interface{}{
			"model_id":    input.ModelId,
			"name":        input.Name,
			"car_type":    input.CarType,
			"fuel_name":   input.FuelName,
			"cc":          input.Cc,
			"base_price":  input.BasePrice,
			"description": input.Description,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionUpdate, trim.ID, "StagingTrim", &before, trim,
			fmt.Sprintf("staging trim %q updated in version %d", trim.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return trim, nil
}

func DeleteStagingTrim(ctx context.Context, versionId int, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		trim, err := utils.FetchVersionModel[StagingTrim](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := deleteStagingTrimTree(ctx, tx, versionId, []int{id}); err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "StagingTrim", trim, nil,
			fmt.Sprintf("staging trim %q deleted from version %d", trim.Name, versionId))
	})
}

func deleteStagingTrimTree(ctx context.Context, tx *gorm.DB, versionId int, trimIds []int) error {
	if len(trimIds) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).
		Where("version_id = ? AND trim_id IN ?", versionId, trimIds).
		Delete(&StagingOption{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("version_id = ? AND id IN ?", versionId, trimIds).
		Delete(&StagingTrim{}).Error
}
