package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

type StagingBrand struct {
	ID        int       `gorm:"primary_key" json:"id"`
	VersionId int       `gorm:"not null;uniqueIndex:idx_staging_brand_version_name" json:"version_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_staging_brand_version_name" json:"name"`
	Country   string    `gorm:"size:50" json:"country"`
	LogoUrl   string    `gorm:"size:500" json:"logo_url"`
	Manager   string    `gorm:"size:100" json:"manager"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStagingBrand struct {
	Name    string `json:"name" binding:"required"`
	Country string `json:"country"`
	LogoUrl string `json:"logo_url"`
	Manager string `json:"manager"`
}

// CreateStagingBrand is the API path: the version must still be PENDING and
// the name must be free within the version.
func CreateStagingBrand(ctx context.Context, versionId int, input *NewStagingBrand) (*StagingBrand, error) {
	db := config.GetDB()
	var brand *StagingBrand
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingBrand{}).
			Where("version_id = ? AND name = ?", versionId, input.Name).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		brand = &StagingBrand{
			VersionId: versionId,
			Name:      input.Name,
			Country:   input.Country,
			LogoUrl:   input.LogoUrl,
			Manager:   input.Manager,
		}
		if err := tx.Create(brand).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, brand.ID, "StagingBrand", nil, brand,
			fmt.Sprintf("staging brand %q created in version %d", brand.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return brand, nil
}

// FindOrCreateStagingBrand reuses an existing row keyed by (version, name),
// updating mutable fields on reuse. Returns created=true only for a new row.
func FindOrCreateStagingBrand(ctx context.Context, tx *gorm.DB, versionId int, input *NewStagingBrand) (*StagingBrand, bool, error) {
	var brand StagingBrand
	err := tx.WithContext(ctx).
		Where("version_id = ? AND name = ?", versionId, input.Name).
		First(&brand).Error
	if err == nil {
		updates := map[string]interface{}{}
		if input.Country != "" && input.Country != brand.Country {
			updates["country"] = input.Country
		}
		if input.LogoUrl != "" && input.LogoUrl != brand.LogoUrl {
			updates["logo_url"] = input.LogoUrl
		}
		if input.Manager != "" && input.Manager != brand.Manager {
			updates["manager"] = input.Manager
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(&brand).Updates(updates).Error; err != nil {
				return nil, false, err
			}
		}
		return &brand, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	brand = StagingBrand{
		VersionId: versionId,
		Name:      input.Name,
		Country:   input.Country,
		LogoUrl:   input.LogoUrl,
		Manager:   input.Manager,
	}
	if err := tx.WithContext(ctx).Create(&brand).Error; err != nil {
		return nil, false, err
	}
	return &brand, true, nil
}

func GetStagingBrand(ctx context.Context, versionId int, id int) (*StagingBrand, error) {
	return utils.FetchVersionModel[StagingBrand](ctx, versionId, id)
}

func ListStagingBrands(ctx context.Context, versionId int) ([]*StagingBrand, error) {
	db := config.GetDB()
	var brands []*StagingBrand
	err := db.WithContext(ctx).
		Where("version_id = ?", versionId).
		Order("name ASC").
		Find(&brands).Error
	if err != nil {
		return nil, err
	}
	return brands, nil
}

func UpdateStagingBrand(ctx context.Context, versionId int, id int, input *NewStagingBrand) (*StagingBrand, error) {
	db := config.GetDB()
	var brand *StagingBrand
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		var err error
		brand, err = utils.FetchVersionModel[StagingBrand](ctx, versionId, id)
		if err != nil {
			return err
		}
		var count int64
		tx.Model(&StagingBrand{}).
			Where("version_id = ? AND name = ? AND id <> ?", versionId, input.Name, id).
			Count(&count)
		if count > 0 {
			return utils.ErrorDuplicateStagingName
		}
		before := *brand
		if err := tx.Model(brand).Updates(map[string]interface{}{
			"name":     input.Name,
			"country":  input.Country,
			"logo_url": input.LogoUrl,
			"manager":  input.Manager,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionUpdate, brand.ID, "StagingBrand", &before, brand,
			fmt.Sprintf("staging brand %q updated in version %d", brand.Name, versionId))
	})
	if err != nil {
		return nil, err
	}
	return brand, nil
}

// DeleteStagingBrand removes the brand and every descendant row in one
// transaction.
func DeleteStagingBrand(ctx context.Context, versionId int, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureVersionIngestable(ctx, tx, versionId); err != nil {
			return err
		}
		brand, err := utils.FetchVersionModel[StagingBrand](ctx, versionId, id)
		if err != nil {
			return err
		}
		if err := deleteStagingBrandTree(ctx, tx, versionId, []int{id}); err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "StagingBrand", brand, nil,
			fmt.Sprintf("staging brand %q deleted from version %d", brand.Name, versionId))
	})
}

func deleteStagingBrandTree(ctx context.Context, tx *gorm.DB, versionId int, brandIds []int) error {
	if len(brandIds) == 0 {
		return nil
	}
	var lineIds []int
	if err := tx.WithContext(ctx).Model(&StagingVehicleLine{}).
		Where("version_id = ? AND brand_id IN ?", versionId, brandIds).
		Pluck("id", &lineIds).Error; err != nil {
		return err
	}
	if err := deleteStagingLineTree(ctx, tx, versionId, lineIds); err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("version_id = ? AND id IN ?", versionId, brandIds).
		Delete(&StagingBrand{}).Error
}

// DeleteStagingTreeForVersion drops every staging row under a version,
// children first. Used by version deletion and the retention sweeper.
func DeleteStagingTreeForVersion(ctx context.Context, tx *gorm.DB, versionId int) error {
	for _, model := range []interface{}{
		&StagingOption{}, &StagingTrim{}, &StagingModel{}, &StagingVehicleLine{}, &StagingBrand{},
	} {
		if err := tx.WithContext(ctx).
			Where("version_id = ?", versionId).
			Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
