package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/models"
	"gorm.io/gorm"
)

type categoryReader struct {
	db *gorm.DB
}

func (r *categoryReader) getCategories(ctx context.Context, ids []int) []*dataloader.Result[*models.Category] {
	var results []models.Category
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Category](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetCategory(ctx context.Context, id int) (*models.Category, error) {
	loaders := For(ctx)
	return loaders.categoryLoader.Load(ctx, id)()
}

type supplierReader struct {
	db *gorm.DB
}

func (r *supplierReader) getSuppliers(ctx context.Context, ids []int) []*dataloader.Result[*models.Supplier] {
	var results []models.Supplier
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Supplier](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetSupplier(ctx context.Context, id int) (*models.Supplier, error) {
	loaders := For(ctx)
	return loaders.supplierLoader.Load(ctx, id)()
}

type ingredientReader struct {
	db *gorm.DB
}

func (r *ingredientReader) getIngredients(ctx context.Context, ids []int) []*dataloader.Result[*models.Ingredient] {
	var results []models.Ingredient
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Ingredient](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetIngredient(ctx context.Context, id int) (*models.Ingredient, error) {
	loaders := For(ctx)
	return loaders.ingredientLoader.Load(ctx, id)()
}

type menuItemReader struct {
	db *gorm.DB
}

func (r *menuItemReader) getMenuItems(ctx context.Context, ids []int) []*dataloader.Result[*models.MenuItem] {
	var results []models.MenuItem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.MenuItem](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetMenuItem(ctx context.Context, id int) (*models.MenuItem, error) {
	loaders := For(ctx)
	return loaders.menuItemLoader.Load(ctx, id)()
}

func GetMenuItems(ctx context.Context, ids []int) ([]*models.MenuItem, []error) {
	loaders := For(ctx)
	return loaders.menuItemLoader.LoadMany(ctx, ids)()
}

type recipeReader struct {
	db *gorm.DB
}

// batch function for recipeLoader, keyed by menu item id
func (r *recipeReader) getRecipesByMenuItem(ctx context.Context, ids []int) []*dataloader.Result[[]*models.Recipe] {
	var results []models.Recipe
	err := r.db.WithContext(ctx).Preload("Ingredient").Where("menu_item_id IN ?", ids).Order("ingredient_id").Find(&results).Error
	if err != nil {
		return handleError[[]*models.Recipe](len(ids), err)
	}
	return generateLoaderArrayResults(results, ids)
}

// returns the recipe lines of a menu item
func GetRecipesByMenuItem(ctx context.Context, id int) ([]*models.Recipe, error) {
	loaders := For(ctx)
	return loaders.recipeLoader.Load(ctx, id)()
}
