package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"index;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (c Category) String() string {
	return c.Name
}

// get ids of menu items in this category
func (c Category) MenuItemIds(ctx context.Context) (ids []int, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&MenuItem{}).
		Where("category_id = ?", c.ID).
		Select("id").Scan(&ids).Error
	return
}

func (input *NewCategory) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	return utils.ValidateUnique[Category](ctx, "name", input.Name, id)
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	category := Category{
		Name:        input.Name,
		Description: input.Description,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, utils.WrapDBError("create category", "Category", err)
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, id int, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(category).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
	}).Error
	if err != nil {
		return nil, utils.WrapDBError("update category", "Category", err)
	}

	if err := utils.RemoveRedisItem[Category](id); err != nil {
		return nil, err
	}
	return category, nil
}

// menu items keep existing with category_id set to NULL
func DeleteCategory(ctx context.Context, id int) (*Category, error) {
	result, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		return nil, err
	}

	menuItemIds, err := result.MenuItemIds(ctx)
	if err != nil {
		return nil, utils.WrapDBError("list category menu items", "Category", err)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete category", "Category", err)
	}

	if err := utils.RemoveRedisItem[Category](id); err != nil {
		return nil, err
	}
	// cached menu items still carry the old category_id
	for _, itemId := range menuItemIds {
		if err := utils.RemoveRedisItem[MenuItem](itemId); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {
	return GetResource[Category](ctx, id)
}

func ListCategories(ctx context.Context) ([]*Category, error) {
	return utils.FetchAllModels[Category](ctx, "name")
}
