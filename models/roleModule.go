package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
)

type RoleModule struct {
	RoleId         int       `gorm:"primary_key;autoIncrement:false;not null" json:"role_id" binding:"required"`
	ModuleId       int       `gorm:"primary_key;autoIncrement:false;not null" json:"module_id" binding:"required"`
	AllowedActions string    `gorm:"not null" json:"allowed_actions" binding:"required"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Role           Role      `json:"role"`
	Module         Module    `json:"module"`
}

type NewRoleModule struct {
	RoleId         int    `json:"role_id" binding:"required"`
	ModuleId       int    `json:"module_id" binding:"required"`
	AllowedActions string `json:"allowed_actions" binding:"required"`
}

/*
cache
	RoleModuleList:$roleId
*/

func SaveRoleModule(ctx context.Context, input *NewRoleModule) (*RoleModule, error) {

	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Role{}).
		Where("id = ?", input.RoleId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, errors.New("roleId does not exist")
	}
	if err := db.WithContext(ctx).Model(&Module{}).
		Where("id = ?", input.ModuleId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, errors.New("moduleId does not exist")
	}

	roleModule := RoleModule{
		RoleId:         input.RoleId,
		ModuleId:       input.ModuleId,
		AllowedActions: input.AllowedActions,
	}

	err := db.WithContext(ctx).Save(&roleModule).Error
	if err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey("RoleModuleList:" + fmt.Sprint(input.RoleId)); err != nil {
		return nil, err
	}
	if err := utils.ClearPathsCache(input.RoleId); err != nil {
		return nil, err
	}
	return &roleModule, nil
}

func DeleteRoleModule(ctx context.Context, input *NewRoleModule) (*RoleModule, error) {
	db := config.GetDB()
	var result RoleModule

	err := db.WithContext(ctx).Model(&RoleModule{}).
		Where("role_id = ? AND module_id = ?", input.RoleId, input.ModuleId).First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Delete(&result).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := config.RemoveRedisKey("RoleModuleList:" + fmt.Sprint(input.RoleId)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := utils.ClearPathsCache(input.RoleId); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &result, tx.Commit().Error
}

func GetRoleModules(ctx context.Context, roleId *int) ([]*RoleModule, error) {

	var results []*RoleModule
	db := config.GetDB()
	if roleId != nil && *roleId > 0 {
		exists, err := config.GetRedisObject("RoleModuleList:"+fmt.Sprint(*roleId), &results)
		if err != nil {
			return nil, err
		}
		if !exists {
			err := db.WithContext(ctx).Where("role_id = ?", *roleId).
				Preload("Role").Preload("Module").
				Find(&results).Error
			if err != nil {
				return nil, err
			}
			if err := config.SetRedisObject("RoleModuleList:"+fmt.Sprint(*roleId), &results, 0); err != nil {
				return nil, err
			}
		}
	} else {
		err := db.WithContext(ctx).Find(&results).Error
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
