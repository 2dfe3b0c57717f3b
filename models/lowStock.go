package models

import (
	"context"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type LowStockRow struct {
	IngredientId int             `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     float64         `json:"quantity"`
	ReorderPoint float64         `json:"reorder_point"`
	Shortfall    float64         `json:"shortfall"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	SupplierId   *int            `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	SupplierMail string          `json:"supplier_email"`
}

// BuildLowStockRows keeps the ingredients at or below their reorder point.
// Ingredients need Supplier loaded for the supplier columns.
func BuildLowStockRows(ingredients []*Ingredient) []*LowStockRow {
	var rows []*LowStockRow
	for _, ing := range ingredients {
		if !ing.NeedsReorder() {
			continue
		}
		row := &LowStockRow{
			IngredientId: ing.ID,
			Name:         ing.Name,
			Unit:         ing.Unit,
			Quantity:     ing.Quantity,
			ReorderPoint: ing.ReorderPoint,
			Shortfall:    ing.ReorderPoint - ing.Quantity,
			CostPerUnit:  ing.CostPerUnit,
			SupplierId:   ing.SupplierId,
		}
		if ing.Supplier != nil {
			row.SupplierName = ing.Supplier.Name
			row.SupplierMail = ing.Supplier.Email
		}
		rows = append(rows, row)
	}
	return rows
}

// GetLowStockReport lists ingredients at or below their reorder point,
// most depleted first. Informational only.
func GetLowStockReport(ctx context.Context) ([]*LowStockRow, error) {
	db := config.GetDB()
	var ingredients []*Ingredient
	err := db.WithContext(ctx).
		Preload("Supplier").
		Where("quantity <= reorder_point").
		Order("(reorder_point - quantity) DESC, name").
		Find(&ingredients).Error
	if err != nil {
		return nil, utils.WrapDBError("low stock report", "Ingredient", err)
	}
	return BuildLowStockRows(ingredients), nil
}
