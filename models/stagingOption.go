package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

type StagingOption struct {
	ID              int       `gorm:"primary_key" json:"id"`
	VersionId       int       `gorm:"not null;uniqueIndex:idx_staging_option_scope" json:"version_id"`
	TrimId          int       `gorm:"not null;uniqueIndex:idx_staging_option_scope;index" json:"trim_id"`
	Name            string    `gorm:"size:200;not null;uniqueIndex:idx_staging_option_scope" json:"name"`
	Code            string    `gorm:"size:50" json:"code"`
	Category        string    `gorm:"size:100" json:"category"`
	Description     string    `gorm:"size:500" json:"description"`
	Price           int64     `gorm:"not null;default:0" json:"price"`
	DiscountedPrice int64     `gorm:"not null;default:0" json:"discounted_price"`
	SortOrder       int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStagingOption struct {
	TrimId          int    `json:"trim_id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Code            string `json:"code"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Price           int64  `json:"price"`
	DiscountedPrice int64  `json:"discounted_price"`
	SortOrder       int    `json:"sort_order"`
}

func ensureStagingTrimInVersion(ctx context.Context, tx *gorm.DB, versionId int, trimId int) error {
	var count int64
	err := tx.WithContext(ctx).Model(&StagingTrim{}).
		Where("version_id = ? AND id = ?", versionId, trimId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorMissingParent
	}
	return nil
}

func CreateStagingOption(ctx context.Context, versionId int, input *NewStagingOption) (*StagingOption, error) {
	db := config.GetDB()
	var option *StagingOption
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		if err := ensureStagingTrimInVersion(ctx, tx, versionId, input.TrimId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingOption{}).
			Where("version_id = ? AND trim_id = ? AND name = ?", versionId, input.TrimId, input.Name).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		option = newStagingOptionRow(versionId, input)
		if err := tx.Create(option).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, option.ID, "StagingOption", nil, option,
			fmt.Sprintf("staging option %q created in version %d", option.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return option, nil
}

func FindOrCreateStagingOption(ctx context.Context, tx *gorm.DB, versionId int, input *NewStagingOption) (*StagingOption, bool, error) {
	var option StagingOption
	err := tx.WithContext(ctx).
		Where("version_id = ? AND trim_id = ? AND name = ?", versionId, input.TrimId, input.Name).
		First(&option).Error
	if err == nil {
		updates := map[string]interface{}{}
		if input.Code != "" && input.Code != option.Code {
			updates["code"] = input.Code
		}
		if input.Category != "" && input.Category != option.Category {
			updates["category"] = input.Category
		}
		if input.Description != "" && input.Description != option.Description {
			updates["description"] = input.Description
		}
		if input.Price != 0 && input.Price != option.Price {
			updates["price"] = input.Price
		}
		if input.DiscountedPrice != 0 && input.DiscountedPrice != option.DiscountedPrice {
			updates["discounted_price"] = input.DiscountedPrice
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(&option).Updates(updates).Error; err != nil {
				return nil, false, err
			}
		}
		return &option, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err := ensureStagingTrimInVersion(ctx, tx, versionId, input.TrimId); err != nil {
		return nil, false, err
	}
	option = *newStagingOptionRow(versionId, input)
	if err := tx.WithContext(ctx).Create(&option).Error; err != nil {
		return nil, false, err
	}
	return &option, true, nil
}

func newStagingOptionRow(versionId int, input *NewStagingOption) *StagingOption {
	return &StagingOption{
		VersionId:       versionId,
		TrimId:          input.TrimId,
		Name:            input.Name,
		Code:            input.Code,
		Category:        input.Category,
		Description:     input.Description,
		Price:           input.Price,
		DiscountedPrice: input.DiscountedPrice,
		SortOrder:       input.SortOrder,
	}
}

func GetStagingOption(ctx context.Context, versionId int, id int) (*StagingOption, error) {
	return utils.FetchVersionModel[StagingOption](ctx, versionId, id)
}

func ListStagingOptions(ctx context.Context, versionId int, trimId int) ([]*StagingOption, error) {
	db := config.GetDB().WithContext(ctx).Where("version_id = ?", versionId)
	if trimId > 0 {
		db = db.Where("trim_id = ?", trimId)
	}
	var options []*StagingOption
	if err := db.Order("sort_order ASC, id ASC").Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

func UpdateStagingOption(ctx context.Context, versionId int, id int, input *NewStagingOption) (*StagingOption, error) {
	db := config.GetDB()
	var option *StagingOption
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var err error
		option, err = utils.FetchVersionModel[StagingOption](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := ensureStagingTrimInVersion(ctx, tx, versionId, input.TrimId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingOption{}).
			Where("version_id = ? AND trim_id = ? AND name = ? AND id <> ?", versionId, input.TrimId, input.Name, id).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		before := *option
		if err := tx.Model(option).Updates(map[string]interface{}{
			"trim_id":          input.TrimId,
			"name":             input.Name,
			"code":             input.Code,
			"category":         input.Category,
			"description":      input.Description,
			"price":            input.Price,
			"discounted_price": input.DiscountedPrice,
			"sort_order":       input.SortOrder,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionUpdate, option.ID, "StagingOption", &before, option,
			fmt.Sprintf("staging option %q updated in version %d", option.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return option, nil
}

func DeleteStagingOption(ctx context.Context, versionId int, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		option, err := utils.FetchVersionModel[StagingOption](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := tx.Where("version_id = ? AND id = ?", versionId, id).
			Delete(&StagingOption{}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "StagingOption", option, nil,
			fmt.Sprintf("staging option %q deleted from version %d", option.Name, versionId))
	})
}
