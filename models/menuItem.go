package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID           int                  `gorm:"primary_key" json:"id"`
	Name         string               `gorm:"index;size:100;not null" json:"name"`
	Description  string               `gorm:"type:text" json:"description"`
	Price        decimal.Decimal      `gorm:"type:decimal(6,2);not null" json:"price"`
	MiscCost     decimal.Decimal      `gorm:"type:decimal(6,2);not null;default:0" json:"misc_cost"`
	CategoryId   *int                 `gorm:"index" json:"category_id"`
	Category     *Category            `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ImageUrl     string               `gorm:"size:512" json:"image_url"`
	ThumbnailUrl string               `gorm:"size:512" json:"thumbnail_url"`
	IsAvailable  *bool                `gorm:"not null;default:true" json:"is_available"`
	RecipeItems  []*Recipe            `gorm:"foreignKey:MenuItemId;constraint:OnDelete:CASCADE" json:"recipe_items,omitempty"`
	Components   []*MenuItemComponent `gorm:"foreignKey:ParentItemId;constraint:OnDelete:CASCADE" json:"components,omitempty"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMenuItem struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	MiscCost    decimal.Decimal `json:"misc_cost"`
	CategoryId  *int            `json:"category_id"`
	IsAvailable *bool           `json:"is_available"`
}

func (m MenuItem) String() string {
	return m.Name
}

// CalculateCost uses the loaded RecipeItems (with Ingredient preloaded).
func (m MenuItem) CalculateCost() decimal.Decimal {
	return CalculateCost(m.RecipeItems, m.MiscCost)
}

func (input *NewMenuItem) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return utils.NewValidation("price", "must not be negative")
	}
	if input.MiscCost.IsNegative() {
		return utils.NewValidation("misc_cost", "must not be negative")
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return err
		}
	}
	return nil
}

func CreateMenuItem(ctx context.Context, input *NewMenuItem) (*MenuItem, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isAvailable := input.IsAvailable
	if isAvailable == nil {
		isAvailable = utils.NewTrue()
	}
	item := MenuItem{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		MiscCost:    input.MiscCost,
		CategoryId:  normalizeOptionalId(input.CategoryId),
		IsAvailable: isAvailable,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, utils.WrapDBError("create menu item", "MenuItem", err)
	}
	return &item, nil
}

func UpdateMenuItem(ctx context.Context, id int, input *NewMenuItem) (*MenuItem, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[MenuItem](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"Price":       input.Price,
		"MiscCost":    input.MiscCost,
		"CategoryId":  normalizeOptionalId(input.CategoryId),
	}
	if input.IsAvailable != nil {
		updates["IsAvailable"] = *input.IsAvailable
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
		return nil, utils.WrapDBError("update menu item", "MenuItem", err)
	}

	if err := utils.RemoveRedisItem[MenuItem](id); err != nil {
		return nil, err
	}
	discountIds, err := discountIdsExcluding(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := removeDiscountCache(discountIds); err != nil {
		return nil, err
	}
	return item, nil
}

// recipes, components and order lines of the item are removed with it
func DeleteMenuItem(ctx context.Context, id int) (*MenuItem, error) {
	result, err := utils.FetchModel[MenuItem](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// collected before the join rows go with the item
	discountIds, err := discountIdsExcluding(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete menu item", "MenuItem", err)
	}

	if err := utils.RemoveRedisItem[MenuItem](id); err != nil {
		return nil, err
	}
	if err := removeDiscountCache(discountIds); err != nil {
		return nil, err
	}
	return result, nil
}

// discountIdsExcluding lists discounts whose cached ExcludedItems carry the menu item.
func discountIdsExcluding(ctx context.Context, menuItemId int) ([]int, error) {
	var ids []int
	err := config.GetDB().WithContext(ctx).
		Table("discount_excluded_items").
		Where("menu_item_id = ?", menuItemId).
		Pluck("discount_id", &ids).Error
	if err != nil {
		return nil, utils.WrapDBError("list excluding discounts", "Discount", err)
	}
	return ids, nil
}

func removeDiscountCache(ids []int) error {
	for _, discountId := range ids {
		if err := utils.RemoveRedisItem[Discount](discountId); err != nil {
			return err
		}
	}
	return nil
}

func GetMenuItem(ctx context.Context, id int) (*MenuItem, error) {
	return GetResource[MenuItem](ctx, id)
}

func ListMenuItems(ctx context.Context, categoryId *int, availableOnly bool) ([]*MenuItem, error) {
	db := config.GetDB()
	var results []*MenuItem

	dbCtx := db.WithContext(ctx)
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	if availableOnly {
		dbCtx = dbCtx.Where("is_available = ?", true)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.WrapDBError("list menu items", "MenuItem", err)
	}
	return results, nil
}

// GetMenuItemCost loads the recipe lines and returns the item's own cost.
func GetMenuItemCost(ctx context.Context, id int) (decimal.Decimal, error) {
	item, err := utils.FetchModel[MenuItem](ctx, id, "RecipeItems.Ingredient")
	if err != nil {
		return decimal.Zero, err
	}
	return item.CalculateCost(), nil
}

// GetMenuItemEffectiveCost includes the cost of every component, recursively.
func GetMenuItemEffectiveCost(ctx context.Context, id int) (decimal.Decimal, error) {
	items := map[int]*MenuItem{}
	graph := ComponentGraph{}

	db := config.GetDB()
	frontier := []int{id}
	for depth := 0; len(frontier) > 0 && depth <= MaxComponentDepth+1; depth++ {
		var loaded []*MenuItem
		err := db.WithContext(ctx).
			Preload("RecipeItems.Ingredient").
			Preload("Components").
			Where("id IN ?", frontier).
			Find(&loaded).Error
		if err != nil {
			return decimal.Zero, utils.WrapDBError("load menu item graph", "MenuItem", err)
		}

		var next []int
		for _, item := range loaded {
			items[item.ID] = item
			graph[item.ID] = item.Components
			for _, c := range item.Components {
				if _, seen := items[c.ComponentItemId]; !seen {
					next = append(next, c.ComponentItemId)
				}
			}
		}
		frontier = utils.UniqueSlice(next)
	}

	if _, ok := items[id]; !ok {
		return decimal.Zero, utils.NewNotFound("MenuItem", id)
	}
	return EffectiveCost(id, items, graph)
}
