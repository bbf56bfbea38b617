package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"gorm.io/gorm"
)

// Main catalog tables. Same shape as their staging counterparts but not
// version scoped; identity is the natural key, so promotion can re-run
// without compensation.

type Brand struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Country   string    `gorm:"size:50" json:"country"`
	LogoUrl   string    `gorm:"size:500" json:"logo_url"`
	Manager   string    `gorm:"size:100" json:"manager"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type VehicleLine struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BrandId     int       `gorm:"not null;uniqueIndex:idx_line_brand_name" json:"brand_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_line_brand_name" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Model struct {
	ID            int       `gorm:"primary_key" json:"id"`
	VehicleLineId int       `gorm:"not null;index" json:"vehicle_line_id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Code          string    `gorm:"size:50;not null;uniqueIndex" json:"code"`
	ReleaseYear   int       `json:"release_year"`
	Price         int64     `gorm:"not null;default:0" json:"price"`
	IsForeign     bool      `gorm:"not null;default:false" json:"is_foreign"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Trim struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ModelId     int       `gorm:"not null;uniqueIndex:idx_trim_model_name" json:"model_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_trim_model_name" json:"name"`
	CarType     string    `gorm:"size:50" json:"car_type"`
	FuelName    string    `gorm:"size:50" json:"fuel_name"`
	Cc          int       `json:"cc"`
	BasePrice   int64     `gorm:"not null;default:0" json:"base_price"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Option struct {
	ID              int       `gorm:"primary_key" json:"id"`
	TrimId          int       `gorm:"not null;uniqueIndex:idx_option_trim_name" json:"trim_id"`
	Name            string    `gorm:"size:200;not null;uniqueIndex:idx_option_trim_name" json:"name"`
	Code            string    `gorm:"size:50" json:"code"`
	Category        string    `gorm:"size:100" json:"category"`
	Description     string    `gorm:"size:500" json:"description"`
	Price           int64     `gorm:"not null;default:0" json:"price"`
	DiscountedPrice int64     `gorm:"not null;default:0" json:"discounted_price"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertBrand merges a staged brand into the main catalog keyed by name.
func UpsertBrand(ctx context.Context, tx *gorm.DB, staged *StagingBrand) (*Brand, error) {
	var brand Brand
	err := tx.WithContext(ctx).Where("name = ?", staged.Name).First(&brand).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&brand).Updates(map[string]interface{}{
			"country":  staged.Country,
			"logo_url": staged.LogoUrl,
			"manager":  staged.Manager,
		}).Error; err != nil {
			return nil, err
		}
		return &brand, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	brand = Brand{
		Name:    staged.Name,
		Country: staged.Country,
		LogoUrl: staged.LogoUrl,
		Manager: staged.Manager,
	}
	if err := tx.WithContext(ctx).Create(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// UpsertVehicleLine keys on (main brand id, name).
func UpsertVehicleLine(ctx context.Context, tx *gorm.DB, brandId int, staged *StagingVehicleLine) (*VehicleLine, error) {
	var line VehicleLine
	err := tx.WithContext(ctx).
		Where("brand_id = ? AND name = ?", brandId, staged.Name).
		First(&line).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&line).
			Update("description", staged.Description).Error; err != nil {
			return nil, err
		}
		return &line, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	line = VehicleLine{
		BrandId:     brandId,
		Name:        staged.Name,
		Description: staged.Description,
	}
	if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// UpsertModel keys on code, which is globally unique in the main catalog.
func UpsertModel(ctx context.Context, tx *gorm.DB, vehicleLineId int, staged *StagingModel) (*Model, error) {
	var model Model
	err := tx.WithContext(ctx).Where("code = ?", staged.Code).First(&model).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&model).Updates(map[string]interface{}{
			"name":            staged.Name,
			"vehicle_line_id": vehicleLineId,
			"release_year":    staged.ReleaseYear,
			"price":           staged.Price,
			"is_foreign":      staged.IsForeign,
		}).Error; err != nil {
			return nil, err
		}
		return &model, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	model = Model{
		VehicleLineId: vehicleLineId,
		Name:          staged.Name,
		Code:          staged.Code,
		ReleaseYear:   staged.ReleaseYear,
		Price:         staged.Price,
		IsForeign:     staged.IsForeign,
	}
	if err := tx.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

func UpsertTrim(ctx context.Context, tx *gorm.DB, modelId int, staged *StagingTrim) (*Trim, error) {
	var trim Trim
	err := tx.WithContext(ctx).
		Where("model_id = ? AND name = ?", modelId, staged.Name).
		First(&trim).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&trim).Updates(map[string]interface{}{
			"car_type":    staged.CarType,
			"fuel_name":   staged.FuelName,
			"cc":          staged.Cc,
			"base_price":  staged.BasePrice,
			"description": staged.Description,
		}).Error; err != nil {
			return nil, err
		}
		return &trim, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	trim = Trim{
		ModelId:     modelId,
		Name:        staged.Name,
		CarType:     staged.CarType,
		FuelName:    staged.FuelName,
		Cc:          staged.Cc,
		BasePrice:   staged.BasePrice,
		Description: staged.Description,
	}
	if err := tx.WithContext(ctx).Create(&trim).Error; err != nil {
		return nil, err
	}
	return &trim, nil
}

func UpsertOption(ctx context.Context, tx *gorm.DB, trimId int, staged *StagingOption) (*Option, error) {
	var option Option
	err := tx.WithContext(ctx).
		Where("trim_id = ? AND name = ?", trimId, staged.Name).
		First(&option).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&option).Updates(map[string]interface{}{
			"code":             staged.Code,
			"category":         staged.Category,
			"description":      staged.Description,
			"price":            staged.Price,
			"discounted_price": staged.DiscountedPrice,
		}).Error; err != nil {
			return nil, err
		}
		return &option, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	option = Option{
		TrimId:          trimId,
		Name:            staged.Name,
		Code:            staged.Code,
		Category:        staged.Category,
		Description:     staged.Description,
		Price:           staged.Price,
		DiscountedPrice: staged.DiscountedPrice,
	}
	if err := tx.WithContext(ctx).Create(&option).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

func ListBrands(ctx context.Context) ([]*Brand, error) {
	db := config.GetDB()
	var brands []*Brand
	if err := db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func ListVehicleLines(ctx context.Context, brandId int) ([]*VehicleLine, error) {
	db := config.GetDB().WithContext(ctx)
	if brandId > 0 {
		db = db.Where("brand_id = ?", brandId)
	}
	var lines []*VehicleLine
	if err := db.Order("name ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func ListModels(ctx context.Context, vehicleLineId int) ([]*Model, error) {
	db := config.GetDB().WithContext(ctx)
	if vehicleLineId > 0 {
		db = db.Where("vehicle_line_id = ?", vehicleLineId)
	}
	var modelRows []*Model
	if err := db.Order("code ASC").Find(&modelRows).Error; err != nil {
		return nil, err
	}
	return modelRows, nil
}

func ListTrims(ctx context.Context, modelId int) ([]*Trim, error) {
	db := config.GetDB().WithContext(ctx)
	if modelId > 0 {
		db = db.Where("model_id = ?", modelId)
	}
	var trims []*Trim
	if err := db.Order("name ASC").Find(&trims).Error; err != nil {
		return nil, err
	}
	return trims, nil
}

func ListOptions(ctx context.Context, trimId int) ([]*Option, error) {
	db := config.GetDB().WithContext(ctx)
	if trimId > 0 {
		db = db.Where("trim_id = ?", trimId)
	}
	var options []*Option
	if err := db.Order("id ASC").Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}
