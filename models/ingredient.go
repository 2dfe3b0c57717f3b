package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ingredient struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"index;size:100;not null" json:"name"`
	Quantity     float64         `gorm:"not null;default:0" json:"quantity"`
	Unit         string          `gorm:"size:20;not null" json:"unit"`
	ReorderPoint float64         `gorm:"not null;default:0" json:"reorder_point"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost_per_unit"`
	SupplierId   *int            `gorm:"index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewIngredient struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Quantity     float64         `json:"quantity"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	ReorderPoint float64         `json:"reorder_point" validate:"gte=0"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	SupplierId   *int            `json:"supplier_id"`
}

func (i Ingredient) String() string {
	return fmt.Sprintf("%s (%s %s)", i.Name, strconv.FormatFloat(i.Quantity, 'f', -1, 64), i.Unit)
}

// NeedsReorder reports whether stock is at or below the reorder point.
func (i Ingredient) NeedsReorder() bool {
	return i.Quantity <= i.ReorderPoint
}

func (input *NewIngredient) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.CostPerUnit.IsNegative() {
		return utils.NewValidation("cost_per_unit", "must not be negative")
	}
	if input.SupplierId != nil && *input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return err
		}
	}
	return nil
}

func normalizeOptionalId(id *int) *int {
	if id == nil || *id <= 0 {
		return nil
	}
	return id
}

func CreateIngredient(ctx context.Context, input *NewIngredient) (*Ingredient, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	ingredient := Ingredient{
		Name:         input.Name,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		ReorderPoint: input.ReorderPoint,
		CostPerUnit:  input.CostPerUnit,
		SupplierId:   normalizeOptionalId(input.SupplierId),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		return nil, utils.WrapDBError("create ingredient", "Ingredient", err)
	}
	return &ingredient, nil
}

// UpdateIngredient changes the catalog fields. Stock level changes go through
// AdjustIngredientStock so they leave a movement row.
func UpdateIngredient(ctx context.Context, id int, input *NewIngredient) (*Ingredient, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	ingredient, err := utils.FetchModel[Ingredient](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(ingredient).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Unit":         input.Unit,
		"ReorderPoint": input.ReorderPoint,
		"CostPerUnit":  input.CostPerUnit,
		"SupplierId":   normalizeOptionalId(input.SupplierId),
	}).Error
	if err != nil {
		return nil, utils.WrapDBError("update ingredient", "Ingredient", err)
	}
	return ingredient, nil
}

// recipes using the ingredient are removed with it
func DeleteIngredient(ctx context.Context, id int) (*Ingredient, error) {
	result, err := utils.FetchModel[Ingredient](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete ingredient", "Ingredient", err)
	}
	return result, nil
}

func GetIngredient(ctx context.Context, id int) (*Ingredient, error) {
	return utils.FetchModel[Ingredient](ctx, id)
}

func ListIngredients(ctx context.Context, name *string) ([]*Ingredient, error) {
	db := config.GetDB()
	var results []*Ingredient

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.WrapDBError("list ingredients", "Ingredient", err)
	}
	return results, nil
}

// AdjustIngredientStock applies a manual delta (delivery, waste, stock take)
// and records it in the movement ledger.
func AdjustIngredientStock(ctx context.Context, id int, delta float64, note string) (*Ingredient, error) {
	var ingredient Ingredient
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := LockIngredients(tx, []int{id})
		if err != nil {
			return err
		}
		current, ok := locked[id]
		if !ok {
			return utils.NewNotFound("Ingredient", id)
		}
		next := current.Quantity + delta
		if next < 0 && !config.AllowNegativeStock() {
			return &utils.InsufficientStockError{
				IngredientId: current.ID,
				Name:         current.Name,
				Available:    current.Quantity,
				Required:     -delta,
			}
		}
		if err := tx.Model(&Ingredient{}).Where("id = ?", id).UpdateColumn("quantity", next).Error; err != nil {
			return err
		}
		movement := StockMovement{
			IngredientId:     id,
			MovementType:     StockMovementTypeAdjustment,
			QuantityDelta:    delta,
			PreviousQuantity: current.Quantity,
			NewQuantity:      next,
			Note:             note,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		ingredient = *current
		ingredient.Quantity = next
		return nil
	})
	if err != nil {
		config.LogError(config.GetLogger(), "Ingredient", "AdjustIngredientStock", "adjusting stock", map[string]interface{}{"id": id, "delta": delta}, err)
		return nil, utils.WrapDBError("adjust ingredient stock", "Ingredient", err)
	}
	return &ingredient, nil
}
