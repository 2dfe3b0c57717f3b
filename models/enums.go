package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/mmdatafocus/kitchen_backend/utils"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Pending",
	OrderStatusPreparing: "Preparing",
	OrderStatusReady:     "Ready for Pickup",
	OrderStatusCompleted: "Completed",
	OrderStatusCancelled: "Cancelled",
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	t := OrderStatus(s)
	if _, ok := orderStatusLabels[t]; !ok {
		return "", utils.NewValidation("status", "invalid order status "+fmt.Sprintf("%q", s))
	}
	return t, nil
}

func (t OrderStatus) Label() string {
	return orderStatusLabels[t]
}

func (t OrderStatus) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *OrderStatus) Scan(value interface{}) error {
	parsed, err := ParseOrderStatus(scanString(value))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *OrderStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodDebitCard     PaymentMethod = "debit_card"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodOther         PaymentMethod = "other"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodCash:          "Cash",
	PaymentMethodCreditCard:    "Credit Card",
	PaymentMethodDebitCard:     "Debit Card",
	PaymentMethodMobilePayment: "Mobile Payment",
	PaymentMethodOther:         "Other",
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	t := PaymentMethod(s)
	if _, ok := paymentMethodLabels[t]; !ok {
		return "", utils.NewValidation("payment_method", "invalid payment method "+fmt.Sprintf("%q", s))
	}
	return t, nil
}

func (t PaymentMethod) Label() string {
	return paymentMethodLabels[t]
}

func (t PaymentMethod) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *PaymentMethod) Scan(value interface{}) error {
	parsed, err := ParsePaymentMethod(scanString(value))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *PaymentMethod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePaymentMethod(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type DiscountType string

const (
	DiscountTypeAmount     DiscountType = "amount"
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeCoupon     DiscountType = "coupon"
)

func ParseDiscountType(s string) (DiscountType, error) {
	switch t := DiscountType(s); t {
	case DiscountTypeAmount, DiscountTypePercentage, DiscountTypeCoupon:
		return t, nil
	default:
		return "", utils.NewValidation("discount_type", "unknown discount type "+fmt.Sprintf("%q", s))
	}
}

func (t DiscountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	parsed, err := ParseDiscountType(scanString(value))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *DiscountType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type StockMovementType string

const (
	StockMovementTypeSale       StockMovementType = "sale"
	StockMovementTypeAdjustment StockMovementType = "adjustment"
)

func scanString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
