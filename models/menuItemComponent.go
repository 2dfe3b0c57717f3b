package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"gorm.io/gorm"
)

// MenuItemComponent makes ParentItem a composite containing Quantity units of
// ComponentItem.
type MenuItemComponent struct {
	ID              int       `gorm:"primary_key" json:"id"`
	ParentItemId    int       `gorm:"index;not null" json:"parent_item_id"`
	ParentItem      *MenuItem `gorm:"foreignKey:ParentItemId;constraint:OnDelete:CASCADE" json:"-"`
	ComponentItemId int       `gorm:"index;not null" json:"component_item_id"`
	ComponentItem   *MenuItem `gorm:"foreignKey:ComponentItemId;constraint:OnDelete:CASCADE" json:"-"`
	Quantity        float64   `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMenuItemComponent struct {
	ParentItemId    int     `json:"parent_item_id" validate:"required"`
	ComponentItemId int     `json:"component_item_id" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
}

// requires ParentItem and ComponentItem loaded
func (c MenuItemComponent) String() string {
	var component, parent string
	if c.ComponentItem != nil {
		component = c.ComponentItem.Name
	}
	if c.ParentItem != nil {
		parent = c.ParentItem.Name
	}
	return fmt.Sprintf("%sx %s in %s", strconv.FormatFloat(c.Quantity, 'f', -1, 64), component, parent)
}

// loadComponentGraph reads every component edge. Menus are small enough that
// the whole edge set fits in memory.
func loadComponentGraph(tx *gorm.DB) (ComponentGraph, error) {
	var edges []*MenuItemComponent
	if err := tx.Find(&edges).Error; err != nil {
		return nil, err
	}
	graph := ComponentGraph{}
	for _, e := range edges {
		graph[e.ParentItemId] = append(graph[e.ParentItemId], e)
	}
	return graph, nil
}

func (input *NewMenuItemComponent) validate(ctx context.Context, tx *gorm.DB, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourcesId[MenuItem](ctx, []int{input.ParentItemId, input.ComponentItemId}); err != nil {
		return err
	}

	graph, err := loadComponentGraph(tx)
	if err != nil {
		return err
	}
	// ignore the edge being replaced
	if id > 0 {
		for parent, edges := range graph {
			kept := edges[:0]
			for _, e := range edges {
				if e.ID != id {
					kept = append(kept, e)
				}
			}
			graph[parent] = kept
		}
	}
	if DetectComponentCycle(graph, input.ParentItemId, input.ComponentItemId) {
		return utils.NewValidation("component_item_id", "component would create a cycle")
	}
	return nil
}

func CreateMenuItemComponent(ctx context.Context, input *NewMenuItemComponent) (*MenuItemComponent, error) {
	component := MenuItemComponent{
		ParentItemId:    input.ParentItemId,
		ComponentItemId: input.ComponentItemId,
		Quantity:        input.Quantity,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := input.validate(ctx, tx, 0); err != nil {
			return err
		}
		return tx.Create(&component).Error
	})
	if err != nil {
		return nil, utils.WrapDBError("create menu item component", "MenuItemComponent", err)
	}
	return &component, nil
}

func UpdateMenuItemComponent(ctx context.Context, id int, input *NewMenuItemComponent) (*MenuItemComponent, error) {
	component, err := utils.FetchModel[MenuItemComponent](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := input.validate(ctx, tx, id); err != nil {
			return err
		}
		return tx.Model(component).Updates(map[string]interface{}{
			"ParentItemId":    input.ParentItemId,
			"ComponentItemId": input.ComponentItemId,
			"Quantity":        input.Quantity,
		}).Error
	})
	if err != nil {
		return nil, utils.WrapDBError("update menu item component", "MenuItemComponent", err)
	}
	return component, nil
}

func DeleteMenuItemComponent(ctx context.Context, id int) (*MenuItemComponent, error) {
	result, err := utils.FetchModel[MenuItemComponent](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete menu item component", "MenuItemComponent", err)
	}
	return result, nil
}

func ListMenuItemComponents(ctx context.Context, parentItemId int) ([]*MenuItemComponent, error) {
	db := config.GetDB()
	var results []*MenuItemComponent
	err := db.WithContext(ctx).
		Preload("ParentItem").
		Preload("ComponentItem").
		Where("parent_item_id = ?", parentItemId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, utils.WrapDBError("list menu item components", "MenuItemComponent", err)
	}
	return results, nil
}
