package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	OrderId    int             `gorm:"index;not null" json:"order_id"`
	MenuItemId int             `gorm:"index;not null" json:"menu_item_id"`
	MenuItem   *MenuItem       `gorm:"constraint:OnDelete:CASCADE" json:"menu_item,omitempty"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	IsFree     bool            `gorm:"not null;default:false" json:"is_free"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Subtotal is zero for free lines, otherwise price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	if i.IsFree {
		return decimal.Zero
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// requires MenuItem loaded
func (i OrderItem) String() string {
	var name string
	if i.MenuItem != nil {
		name = i.MenuItem.Name
	}
	return fmt.Sprintf("%dx %s", i.Quantity, name)
}

func GetOrderItem(ctx context.Context, id int) (*OrderItem, error) {
	return utils.FetchModel[OrderItem](ctx, id, "MenuItem")
}

func ListOrderItems(ctx context.Context, orderId int) ([]*OrderItem, error) {
	db := config.GetDB()
	var results []*OrderItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, utils.WrapDBError("list order items", "OrderItem", err)
	}
	return results, nil
}
