package models

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement is one change to an ingredient's stock level.
type StockMovement struct {
	ID               int               `gorm:"primary_key" json:"id"`
	IngredientId     int               `gorm:"index;not null" json:"ingredient_id"`
	OrderId          *int              `gorm:"index" json:"order_id"`
	OrderItemId      *int              `gorm:"index" json:"order_item_id"`
	MovementType     StockMovementType `gorm:"type:enum('sale','adjustment');not null" json:"movement_type"`
	QuantityDelta    float64           `gorm:"not null" json:"quantity_delta"`
	PreviousQuantity float64           `gorm:"not null" json:"previous_quantity"`
	NewQuantity      float64           `gorm:"not null" json:"new_quantity"`
	Note             string            `gorm:"size:255" json:"note"`
	CorrelationId    string            `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// LockIngredients loads the ingredient rows FOR UPDATE in ascending id order so
// concurrent commits touching the same set never deadlock. Must be called
// inside a transaction.
func LockIngredients(tx *gorm.DB, ids []int) (map[int]*Ingredient, error) {
	unq := utils.UniqueSlice(ids)
	sort.Ints(unq)

	result := make(map[int]*Ingredient, len(unq))
	if len(unq) == 0 {
		return result, nil
	}

	var rows []*Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", unq).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// ApplyStockDepletion writes the planned quantities and one sale movement per
// plan entry.
func ApplyStockDepletion(tx *gorm.DB, plan []StockDepletion, orderId int, orderItemId int, correlationId string) error {
	final := make(map[int]float64, len(plan))
	var movements []*StockMovement
	for _, step := range plan {
		final[step.IngredientId] = step.Remaining
		oid, iid := orderId, orderItemId
		movements = append(movements, &StockMovement{
			IngredientId:     step.IngredientId,
			OrderId:          &oid,
			OrderItemId:      &iid,
			MovementType:     StockMovementTypeSale,
			QuantityDelta:    -step.Used,
			PreviousQuantity: step.Previous,
			NewQuantity:      step.Remaining,
			CorrelationId:    correlationId,
		})
	}

	ids := make([]int, 0, len(final))
	for id := range final {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if err := tx.Model(&Ingredient{}).Where("id = ?", id).UpdateColumn("quantity", final[id]).Error; err != nil {
			return err
		}
	}

	if len(movements) == 0 {
		return nil
	}
	return tx.Create(&movements).Error
}

func ListStockMovements(ctx context.Context, ingredientId int, limit int) ([]*StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	db := config.GetDB()
	var results []*StockMovement
	err := db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientId).
		Order("id DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, utils.WrapDBError("list stock movements", "StockMovement", err)
	}
	return results, nil
}
