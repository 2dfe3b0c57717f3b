package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("github.com/mmdatafocus/kitchen_backend/workflow")

type CommitOrderLineInput struct {
	OrderId     int              `json:"order_id" validate:"required"`
	OrderItemId *int             `json:"order_item_id"`
	MenuItemId  int              `json:"menu_item_id" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gte=1"`
	Price       *decimal.Decimal `json:"price"`
	IsFree      bool             `json:"is_free"`
}

type CommitOrderLineResult struct {
	OrderItem  *models.OrderItem       `json:"order_item"`
	Totals     models.OrderTotals      `json:"totals"`
	Depletions []models.StockDepletion `json:"depletions"`
}

type orderLineEvent struct {
	OrderId     int                     `json:"order_id"`
	OrderItemId int                     `json:"order_item_id"`
	MenuItemId  int                     `json:"menu_item_id"`
	Quantity    int                     `json:"quantity"`
	Price       decimal.Decimal         `json:"price"`
	IsFree      bool                    `json:"is_free"`
	Total       decimal.Decimal         `json:"total"`
	Depletions  []models.StockDepletion `json:"depletions,omitempty"`
}

func (input *CommitOrderLineInput) validate() error {
	// quantity defaults to one
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return utils.NewValidation("price", "must not be negative")
	}
	return nil
}

// checkOrderable rejects menu items that are switched off.
func checkOrderable(menuItem *models.MenuItem) error {
	if !utils.DereferencePtr(menuItem.IsAvailable, true) {
		return utils.NewValidation("menu_item_id", fmt.Sprintf("menu item %d is not available", menuItem.ID))
	}
	return nil
}

// CommitOrderLine writes an order line, depletes ingredient stock for every
// recipe line of its menu item and recomputes the order total, all in one
// transaction. When OrderItemId is set the existing line is updated and stock
// is depleted again by the full new quantity.
func CommitOrderLine(ctx context.Context, input *CommitOrderLineInput) (*CommitOrderLineResult, error) {
	ctx, span := tracer.Start(ctx, "CommitOrderLine", trace.WithAttributes(
		attribute.Int("order.id", input.OrderId),
		attribute.Int("menu_item.id", input.MenuItemId),
		attribute.Int("quantity", input.Quantity),
	))
	defer span.End()

	if err := input.validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	lock := obtainRedisOrderLock(ctx, input.OrderId)
	defer releaseRedisOrderLock(ctx, lock, input.OrderId)

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	allowNegative := config.AllowNegativeStock()

	var result CommitOrderLineResult
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderLock(tx, input.OrderId); err != nil {
			return err
		}
		defer ReleaseOrderLock(tx, input.OrderId)

		order, err := lockOrderRow(tx, input.OrderId)
		if err != nil {
			return utils.WrapDBError("lock order", "Order", err)
		}

		menuItem, err := utils.FetchModelTx[models.MenuItem](ctx, tx, input.MenuItemId)
		if err != nil {
			return err
		}
		if err := checkOrderable(menuItem); err != nil {
			return err
		}

		price := menuItem.Price
		if input.Price != nil {
			price = *input.Price
		}

		item, err := writeOrderItem(tx, order.ID, input, price)
		if err != nil {
			return err
		}

		recipes, err := models.ListRecipesByMenuItemTx(tx, menuItem.ID)
		if err != nil {
			return err
		}
		ingredientIds := make([]int, 0, len(recipes))
		for _, r := range recipes {
			ingredientIds = append(ingredientIds, r.IngredientId)
		}
		ingredients, err := models.LockIngredients(tx, ingredientIds)
		if err != nil {
			return err
		}

		plan, err := models.PlanStockDepletion(recipes, ingredients, item.Quantity, allowNegative)
		if err != nil {
			return err
		}
		if err := models.ApplyStockDepletion(tx, plan, order.ID, item.ID, correlationId); err != nil {
			return err
		}

		totals, err := models.RecalculateOrderTotal(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		if err := models.EnqueueOutbox(ctx, tx, models.OutboxEventOrderLineCommitted, models.OutboxReferenceOrderItem, item.ID, orderLineEvent{
			OrderId:     order.ID,
			OrderItemId: item.ID,
			MenuItemId:  item.MenuItemId,
			Quantity:    item.Quantity,
			Price:       item.Price,
			IsFree:      item.IsFree,
			Total:       totals.Total,
			Depletions:  plan,
		}); err != nil {
			return err
		}

		item.MenuItem = menuItem
		result = CommitOrderLineResult{
			OrderItem:  item,
			Totals:     totals,
			Depletions: plan,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(config.GetLogger(), "workflow", "CommitOrderLine", "committing order line", input, err)
		return nil, utils.WrapDBError("commit order line", "OrderItem", err)
	}

	span.SetAttributes(attribute.Int("order_item.id", result.OrderItem.ID), attribute.String("order.total", result.Totals.Total.String()))
	return &result, nil
}

func writeOrderItem(tx *gorm.DB, orderId int, input *CommitOrderLineInput, price decimal.Decimal) (*models.OrderItem, error) {
	if input.OrderItemId == nil || *input.OrderItemId <= 0 {
		item := models.OrderItem{
			OrderId:    orderId,
			MenuItemId: input.MenuItemId,
			Quantity:   input.Quantity,
			Price:      price,
			IsFree:     input.IsFree,
		}
		if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	}

	var item models.OrderItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderId).
		First(&item, *input.OrderItemId).Error
	if err != nil {
		return nil, utils.WrapDBError("fetch order item", "OrderItem", err)
	}
	err = tx.Model(&item).Omit(clause.Associations).Updates(map[string]interface{}{
		"MenuItemId": input.MenuItemId,
		"Quantity":   input.Quantity,
		"Price":      price,
		"IsFree":     input.IsFree,
	}).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveOrderLine deletes the line and recomputes the order total in one
// transaction. Ingredient stock is not restored.
func RemoveOrderLine(ctx context.Context, orderItemId int) (*models.OrderTotals, error) {
	ctx, span := tracer.Start(ctx, "RemoveOrderLine", trace.WithAttributes(attribute.Int("order_item.id", orderItemId)))
	defer span.End()

	var totals models.OrderTotals
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// plain read for the order id; row locks follow the order lock as in CommitOrderLine
		var ref models.OrderItem
		if err := tx.Select("id", "order_id").First(&ref, orderItemId).Error; err != nil {
			return utils.WrapDBError("fetch order item", "OrderItem", err)
		}
		orderId := ref.OrderId

		if err := AcquireOrderLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderLock(tx, orderId)

		if _, err := lockOrderRow(tx, orderId); err != nil {
			return utils.WrapDBError("lock order", "Order", err)
		}

		// the line may have been removed while we waited for the lock
		var item models.OrderItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", orderId).
			First(&item, orderItemId).Error
		if err != nil {
			return utils.WrapDBError("fetch order item", "OrderItem", err)
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		totals, err = models.RecalculateOrderTotal(ctx, tx, orderId)
		if err != nil {
			return err
		}
		return models.EnqueueOutbox(ctx, tx, models.OutboxEventOrderLineRemoved, models.OutboxReferenceOrderItem, item.ID, orderLineEvent{
			OrderId:     orderId,
			OrderItemId: item.ID,
			MenuItemId:  item.MenuItemId,
			Quantity:    item.Quantity,
			Price:       item.Price,
			IsFree:      item.IsFree,
			Total:       totals.Total,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(config.GetLogger(), "workflow", "RemoveOrderLine", "removing order line", orderItemId, err)
		return nil, utils.WrapDBError("remove order line", "OrderItem", err)
	}
	return &totals, nil
}
