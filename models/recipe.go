package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"gorm.io/gorm"
)

// Recipe is one bill-of-materials line: Quantity units of Ingredient per unit of MenuItem.
type Recipe struct {
	ID           int         `gorm:"primary_key" json:"id"`
	MenuItemId   int         `gorm:"not null;uniqueIndex:idx_recipe_menu_item_ingredient,priority:1" json:"menu_item_id"`
	MenuItem     *MenuItem   `gorm:"foreignKey:MenuItemId;constraint:OnDelete:CASCADE" json:"-"`
	IngredientId int         `gorm:"not null;index;uniqueIndex:idx_recipe_menu_item_ingredient,priority:2" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientId;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
	Quantity     float64     `gorm:"not null" json:"quantity"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRecipe struct {
	MenuItemId   int     `json:"menu_item_id" validate:"required"`
	IngredientId int     `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
}

// requires MenuItem and Ingredient loaded
func (r Recipe) String() string {
	var menu, ingredient string
	if r.MenuItem != nil {
		menu = r.MenuItem.Name
	}
	if r.Ingredient != nil {
		ingredient = r.Ingredient.Name
	}
	return fmt.Sprintf("%s - %s", menu, ingredient)
}

func (input *NewRecipe) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[MenuItem](ctx, input.MenuItemId); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Ingredient](ctx, input.IngredientId); err != nil {
		return err
	}

	// one row per (menu item, ingredient); the unique index backs this up
	var count int64
	var err error
	if id > 0 {
		count, err = utils.ResourceCountWhere[Recipe](ctx, "menu_item_id = ? AND ingredient_id = ? AND NOT id = ?", input.MenuItemId, input.IngredientId, id)
	} else {
		count, err = utils.ResourceCountWhere[Recipe](ctx, "menu_item_id = ? AND ingredient_id = ?", input.MenuItemId, input.IngredientId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidation("ingredient_id", "ingredient already in recipe")
	}
	return nil
}

func CreateRecipe(ctx context.Context, input *NewRecipe) (*Recipe, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	recipe := Recipe{
		MenuItemId:   input.MenuItemId,
		IngredientId: input.IngredientId,
		Quantity:     input.Quantity,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, utils.WrapDBError("create recipe", "Recipe", err)
	}
	return &recipe, nil
}

func UpdateRecipe(ctx context.Context, id int, input *NewRecipe) (*Recipe, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	recipe, err := utils.FetchModel[Recipe](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(recipe).Updates(map[string]interface{}{
		"MenuItemId":   input.MenuItemId,
		"IngredientId": input.IngredientId,
		"Quantity":     input.Quantity,
	}).Error
	if err != nil {
		return nil, utils.WrapDBError("update recipe", "Recipe", err)
	}
	return recipe, nil
}

func DeleteRecipe(ctx context.Context, id int) (*Recipe, error) {
	result, err := utils.FetchModel[Recipe](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete recipe", "Recipe", err)
	}
	return result, nil
}

func ListRecipesByMenuItem(ctx context.Context, menuItemId int) ([]*Recipe, error) {
	return listRecipesByMenuItem(config.GetDB().WithContext(ctx), menuItemId)
}

// ListRecipesByMenuItemTx reads the recipe lines inside the caller's transaction.
func ListRecipesByMenuItemTx(tx *gorm.DB, menuItemId int) ([]*Recipe, error) {
	return listRecipesByMenuItem(tx, menuItemId)
}

func listRecipesByMenuItem(db *gorm.DB, menuItemId int) ([]*Recipe, error) {
	var results []*Recipe
	err := db.
		Preload("Ingredient").
		Where("menu_item_id = ?", menuItemId).
		Order("ingredient_id").
		Find(&results).Error
	if err != nil {
		return nil, utils.WrapDBError("list recipes", "Recipe", err)
	}
	return results, nil
}
