package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Order struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CustomerId      *int            `gorm:"index" json:"customer_id"`
	Customer        *User           `gorm:"foreignKey:CustomerId;constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	Status          OrderStatus     `gorm:"type:enum('pending','preparing','ready','completed','cancelled');not null;default:'pending';index" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	PaymentMethod   PaymentMethod   `gorm:"type:enum('cash','credit_card','debit_card','mobile_payment','other');not null;default:'cash'" json:"payment_method"`
	DeliveryAddress *string         `gorm:"type:text" json:"delivery_address"`
	DiscountId      *int            `gorm:"index" json:"discount_id"`
	Discount        *Discount       `gorm:"constraint:OnDelete:SET NULL" json:"discount,omitempty"`
	CouponCode      *string         `gorm:"size:50" json:"coupon_code"`
	Items           []*OrderItem    `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalAmount is never part of the input; it is always recomputed.
type NewOrder struct {
	PaymentMethod   PaymentMethod `json:"payment_method"`
	DeliveryAddress *string       `json:"delivery_address"`
	DiscountId      *int          `json:"discount_id"`
	CouponCode      *string       `json:"coupon_code" validate:"omitempty,max=50"`
}

// requires Customer loaded
func (o Order) String() string {
	name := "Guest"
	if o.Customer != nil {
		name = o.Customer.Username
	}
	return fmt.Sprintf("Order #%d - %s", o.ID, name)
}

// resolveDiscount picks the discount for the order. An explicit discount id
// wins; otherwise a coupon code is looked up.
func (input *NewOrder) resolveDiscount(ctx context.Context) (*int, *string, error) {
	coupon := normalizeCouponCode(input.CouponCode)
	if input.DiscountId != nil && *input.DiscountId > 0 {
		if err := utils.ValidateResourceId[Discount](ctx, *input.DiscountId); err != nil {
			return nil, nil, err
		}
		return input.DiscountId, coupon, nil
	}
	if coupon != nil {
		discount, err := GetDiscountByCouponCode(ctx, *coupon)
		if err != nil {
			return nil, nil, err
		}
		return &discount.ID, coupon, nil
	}
	return nil, nil, nil
}

func (input *NewOrder) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = PaymentMethodCash
	}
	if _, err := ParsePaymentMethod(string(input.PaymentMethod)); err != nil {
		return err
	}
	return nil
}

// CreateOrder opens an empty pending order for the customer in ctx (guest
// when absent).
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	discountId, coupon, err := input.resolveDiscount(ctx)
	if err != nil {
		return nil, err
	}

	order := Order{
		CustomerId:      utils.CustomerIdFromContext(ctx),
		Status:          OrderStatusPending,
		TotalAmount:     decimal.Zero,
		PaymentMethod:   input.PaymentMethod,
		DeliveryAddress: input.DeliveryAddress,
		DiscountId:      discountId,
		CouponCode:      coupon,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return nil, utils.WrapDBError("create order", "Order", err)
	}
	return &order, nil
}

// UpdateOrder changes payment, delivery and discount details and recomputes
// the total since the discount may have changed.
func UpdateOrder(ctx context.Context, id int, input *NewOrder) (*Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	discountId, coupon, err := input.resolveDiscount(ctx)
	if err != nil {
		return nil, err
	}

	var order *Order
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = utils.FetchModelTx[Order](ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(order).Omit(clause.Associations).Updates(map[string]interface{}{
			"PaymentMethod":   input.PaymentMethod,
			"DeliveryAddress": input.DeliveryAddress,
			"DiscountId":      discountId,
			"CouponCode":      coupon,
		}).Error; err != nil {
			return err
		}
		totals, err := RecalculateOrderTotal(ctx, tx, id)
		if err != nil {
			return err
		}
		order.TotalAmount = totals.Total
		return nil
	})
	if err != nil {
		return nil, utils.WrapDBError("update order", "Order", err)
	}
	return order, nil
}

func UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (*Order, error) {
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	var order *Order
	var err error
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = utils.FetchModelTx[Order](ctx, tx, id)
		if err != nil {
			return err
		}
		oldStatus := order.Status
		if err := tx.Model(order).Omit(clause.Associations).UpdateColumn("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return EnqueueOutbox(ctx, tx, OutboxEventOrderStatusChanged, OutboxReferenceOrder, id, map[string]interface{}{
			"order_id":   id,
			"old_status": oldStatus,
			"new_status": status,
		})
	})
	if err != nil {
		return nil, utils.WrapDBError("update order status", "Order", err)
	}
	return order, nil
}

// order items go with the order; stock is not restored
func DeleteOrder(ctx context.Context, id int) (*Order, error) {
	result, err := utils.FetchModel[Order](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Select(clause.Associations).Delete(result).Error; err != nil {
		return nil, utils.WrapDBError("delete order", "Order", err)
	}
	return result, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	return utils.FetchModel[Order](ctx, id, "Customer", "Discount.ExcludedItems", "Items.MenuItem")
}

func ListOrders(ctx context.Context, status *OrderStatus, customerId *int) ([]*Order, error) {
	db := config.GetDB()
	var results []*Order

	dbCtx := db.WithContext(ctx).Preload("Customer")
	if status != nil && strings.TrimSpace(string(*status)) != "" {
		if _, err := ParseOrderStatus(string(*status)); err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, utils.WrapDBError("list orders", "Order", err)
	}
	return results, nil
}

// RecalculateOrderTotal loads the order's lines and discount inside tx,
// computes the totals and writes total_amount. Nothing else on the order
// changes, so running it twice leaves the same state.
func RecalculateOrderTotal(ctx context.Context, tx *gorm.DB, orderId int) (OrderTotals, error) {
	var order Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Preload("Discount.ExcludedItems").
		First(&order, orderId).Error
	if err != nil {
		return OrderTotals{}, utils.WrapDBError("load order", "Order", err)
	}

	if err := order.Discount.ValidateType(); err != nil {
		return OrderTotals{}, err
	}
	totals := CalculateOrderTotal(order.Items, order.Discount, Now())
	err = tx.WithContext(ctx).Model(&Order{}).
		Where("id = ?", orderId).
		Updates(map[string]interface{}{
			"total_amount": totals.Total,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return OrderTotals{}, utils.WrapDBError("save order total", "Order", err)
	}
	return totals, nil
}

// GetOrderTotals computes the totals without writing anything.
func GetOrderTotals(ctx context.Context, orderId int) (OrderTotals, error) {
	order, err := utils.FetchModel[Order](ctx, orderId, "Items", "Discount.ExcludedItems")
	if err != nil {
		return OrderTotals{}, err
	}
	if err := order.Discount.ValidateType(); err != nil {
		return OrderTotals{}, err
	}
	return CalculateOrderTotal(order.Items, order.Discount, Now()), nil
}

// RecomputeAllOrderTotals recomputes every order, one transaction per order.
// It returns the number of orders processed.
func RecomputeAllOrderTotals(ctx context.Context) (int, error) {
	db := config.GetDB()
	var ids []int
	if err := db.WithContext(ctx).Model(&Order{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, utils.WrapDBError("list order ids", "Order", err)
	}

	for n, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := RecalculateOrderTotal(ctx, tx, id)
			return err
		})
		if err != nil {
			config.LogError(config.GetLogger(), "Order", "RecomputeAllOrderTotals", "recomputing total", id, err)
			return n, err
		}
	}
	return len(ids), nil
}
