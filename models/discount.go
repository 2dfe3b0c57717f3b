package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Discount struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	DiscountType  DiscountType    `gorm:"type:enum('amount','percentage','coupon');not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_value"`
	CouponCode    *string         `gorm:"size:50;uniqueIndex" json:"coupon_code"`
	StartDate     *time.Time      `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	ExcludedItems []*MenuItem     `gorm:"many2many:discount_excluded_items;constraint:OnDelete:CASCADE" json:"excluded_items,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDiscount struct {
	Name            string          `json:"name" validate:"required,max=100"`
	DiscountType    DiscountType    `json:"discount_type" validate:"required"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	CouponCode      *string         `json:"coupon_code" validate:"omitempty,max=50"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	IsActive        *bool           `json:"is_active"`
	ExcludedItemIds []int           `json:"excluded_item_ids"`
}

func (d Discount) String() string {
	return d.Name
}

// IsValidAt: active, and now within [StartDate, EndDate] where each bound is
// optional and inclusive.
func (d Discount) IsValidAt(now time.Time) bool {
	if d.IsActive == nil || !*d.IsActive {
		return false
	}
	if d.StartDate != nil && d.StartDate.After(now) {
		return false
	}
	if d.EndDate != nil && d.EndDate.Before(now) {
		return false
	}
	return true
}

func (d Discount) IsValid() bool {
	return d.IsValidAt(Now())
}

func (d Discount) excludedSet() map[int]bool {
	set := make(map[int]bool, len(d.ExcludedItems))
	for _, item := range d.ExcludedItems {
		set[item.ID] = true
	}
	return set
}

func normalizeCouponCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (input *NewDiscount) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if _, err := ParseDiscountType(string(input.DiscountType)); err != nil {
		return err
	}
	if input.DiscountValue.IsNegative() {
		return utils.NewValidation("discount_value", "must not be negative")
	}
	if input.DiscountType == DiscountTypePercentage && input.DiscountValue.GreaterThan(decimalOneHundred) {
		return utils.NewValidation("discount_value", "percentage must not exceed 100")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return utils.NewValidation("end_date", "end date before start date")
	}
	if code := normalizeCouponCode(input.CouponCode); code != nil {
		if err := utils.ValidateUnique[Discount](ctx, "coupon_code", *code, id); err != nil {
			return err
		}
	}
	return utils.ValidateResourcesId[MenuItem](ctx, input.ExcludedItemIds)
}

func excludedItemRefs(ids []int) []*MenuItem {
	var items []*MenuItem
	for _, id := range utils.UniqueSlice(ids) {
		items = append(items, &MenuItem{ID: id})
	}
	return items
}

func CreateDiscount(ctx context.Context, input *NewDiscount) (*Discount, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}
	discount := Discount{
		Name:          input.Name,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		CouponCode:    normalizeCouponCode(input.CouponCode),
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsActive:      isActive,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("ExcludedItems").Create(&discount).Error; err != nil {
			return err
		}
		refs := excludedItemRefs(input.ExcludedItemIds)
		if len(refs) == 0 {
			return nil
		}
		return tx.Model(&discount).Association("ExcludedItems").Append(refs)
	})
	if err != nil {
		return nil, utils.WrapDBError("create discount", "Discount", err)
	}
	return &discount, nil
}

func UpdateDiscount(ctx context.Context, id int, input *NewDiscount) (*Discount, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	discount, err := utils.FetchModel[Discount](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":          input.Name,
		"DiscountType":  input.DiscountType,
		"DiscountValue": input.DiscountValue,
		"CouponCode":    normalizeCouponCode(input.CouponCode),
		"StartDate":     input.StartDate,
		"EndDate":       input.EndDate,
	}
	if input.IsActive != nil {
		updates["IsActive"] = *input.IsActive
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(discount).Omit("ExcludedItems").Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(discount).Association("ExcludedItems").Replace(excludedItemRefs(input.ExcludedItemIds))
	})
	if err != nil {
		return nil, utils.WrapDBError("update discount", "Discount", err)
	}

	if err := utils.RemoveRedisItem[Discount](id); err != nil {
		return nil, err
	}
	return discount, nil
}

// orders referencing the discount keep existing with discount_id set to NULL
func DeleteDiscount(ctx context.Context, id int) (*Discount, error) {
	result, err := utils.FetchModel[Discount](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(result).Association("ExcludedItems").Clear(); err != nil {
			return err
		}
		return tx.Delete(result).Error
	})
	if err != nil {
		return nil, utils.WrapDBError("delete discount", "Discount", err)
	}

	if err := utils.RemoveRedisItem[Discount](id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetDiscount(ctx context.Context, id int) (*Discount, error) {
	return GetResource[Discount](ctx, id, "ExcludedItems")
}

// GetDiscountByCouponCode finds the discount carrying the code. The discount
// may be expired or inactive; callers check IsValid.
func GetDiscountByCouponCode(ctx context.Context, code string) (*Discount, error) {
	normalized := normalizeCouponCode(&code)
	if normalized == nil {
		return nil, utils.NewValidation("coupon_code", "coupon code is required")
	}

	db := config.GetDB()
	var discount Discount
	err := db.WithContext(ctx).
		Preload("ExcludedItems").
		Where("coupon_code = ?", *normalized).
		First(&discount).Error
	if err != nil {
		return nil, utils.WrapDBError("get discount by coupon", "Discount", err)
	}
	return &discount, nil
}

func ListDiscounts(ctx context.Context, activeOnly bool) ([]*Discount, error) {
	db := config.GetDB()
	var results []*Discount

	dbCtx := db.WithContext(ctx).Preload("ExcludedItems")
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.WrapDBError("list discounts", "Discount", err)
	}
	return results, nil
}
