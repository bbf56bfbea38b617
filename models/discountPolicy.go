package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/shopspring/decimal"
)

// DiscountPolicy applies a rate or a flat amount to option prices in one
// category (empty category means all options of the trim).
type DiscountPolicy struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	DiscountType DiscountType    `gorm:"size:10;not null" json:"discount_type" binding:"required"`
	Value        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"value"`
	Category     string          `gorm:"size:100" json:"category"`
	TrimId       int             `gorm:"index" json:"trim_id"`
	IsActive     *bool           `gorm:"not null" json:"is_active"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDiscountPolicy struct {
	Name         string          `json:"name" binding:"required"`
	DiscountType DiscountType    `json:"discount_type" binding:"required"`
	Value        decimal.Decimal `json:"value"`
	Category     string          `json:"category"`
	TrimId       int             `json:"trim_id"`
	IsActive     *bool           `json:"is_active" binding:"required"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
}

func (input *NewDiscountPolicy) validate() error {
	if !input.DiscountType.Valid() {
		return errors.New("invalid discount type")
	}
	if input.Value.IsNegative() {
		return errors.New("discount value must not be negative")
	}
	if input.DiscountType == DiscountTypeRate && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("discount rate must not exceed 100")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// Apply returns the discounted price, truncated toward zero, never below 0.
func (policy *DiscountPolicy) Apply(price int64) int64 {
	p := decimal.NewFromInt(price)
	var discounted decimal.Decimal
	switch policy.DiscountType {
	case DiscountTypeRate:
		discounted = p.Sub(p.Mul(policy.Value).Div(decimal.NewFromInt(100)))
	case DiscountTypeAmount:
		discounted = p.Sub(policy.Value)
	default:
		return price
	}
	if discounted.IsNegative() {
		return 0
	}
	return discounted.IntPart()
}

// ActiveAt reports whether the policy applies at the given time.
func (policy *DiscountPolicy) ActiveAt(t time.Time) bool {
	if policy.IsActive == nil || !*policy.IsActive {
		return false
	}
	if policy.StartDate != nil && t.Before(*policy.StartDate) {
		return false
	}
	if policy.EndDate != nil && t.After(*policy.EndDate) {
		return false
	}
	return true
}

func CreateDiscountPolicy(ctx context.Context, input *NewDiscountPolicy) (*DiscountPolicy, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[DiscountPolicy](ctx, 0, "name", input.Name, 0); err != nil {
		return nil, err
	}

	policy := DiscountPolicy{
		Name:         input.Name,
		DiscountType: input.DiscountType,
		Value:        input.Value,
		Category:     input.Category,
		TrimId:       input.TrimId,
		IsActive:     input.IsActive,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func UpdateDiscountPolicy(ctx context.Context, id int, input *NewDiscountPolicy) (*DiscountPolicy, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[DiscountPolicy](ctx, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[DiscountPolicy](ctx, 0, "name", input.Name, id); err != nil {
		return nil, err
	}

	policy := DiscountPolicy{ID: id}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&policy).Updates(map[string]interface{}{
		"name":          input.Name,
		"discount_type": input.DiscountType,
		"value":         input.Value,
		"category":      input.Category,
		"trim_id":       input.TrimId,
		"is_active":     input.IsActive,
		"start_date":    input.StartDate,
		"end_date":      input.EndDate,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchSingleModel[DiscountPolicy](ctx, id)
}

func DeleteDiscountPolicy(ctx context.Context, id int) (*DiscountPolicy, error) {
	policy, err := utils.FetchSingleModel[DiscountPolicy](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

func GetDiscountPolicy(ctx context.Context, id int) (*DiscountPolicy, error) {
	return utils.FetchSingleModel[DiscountPolicy](ctx, id)
}

func GetDiscountPolicies(ctx context.Context) ([]*DiscountPolicy, error) {
	return utils.FetchAllModels[DiscountPolicy](ctx)
}
