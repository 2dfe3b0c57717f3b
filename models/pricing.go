package models

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

// MaxComponentDepth caps composite menu item recursion.
const MaxComponentDepth = 8

var decimalOneHundred = decimal.NewFromInt(100)

// Now is the clock used for discount validity. Tests replace it.
var Now = time.Now

// CalculateCost sums ingredient cost_per_unit × recipe quantity, plus miscCost.
// Recipes without a loaded ingredient contribute nothing.
func CalculateCost(recipes []*Recipe, miscCost decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, recipe := range recipes {
		if recipe == nil || recipe.Ingredient == nil {
			continue
		}
		total = total.Add(recipe.Ingredient.CostPerUnit.Mul(decimal.NewFromFloat(recipe.Quantity)))
	}
	return total.Add(miscCost)
}

// OrderTotals is the outcome of one total recomputation.
type OrderTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// CalculateOrderTotal prices the given lines and applies discount when it is
// valid at now. Lines whose menu item is excluded by the discount are not
// discounted. The result is never negative.
func CalculateOrderTotal(items []*OrderItem, discount *Discount, now time.Time) OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	discountAmount := decimal.Zero
	if discount != nil && discount.IsValidAt(now) {
		excluded := discount.excludedSet()
		for _, item := range items {
			if excluded[item.MenuItemId] {
				continue
			}
			discountAmount = discountAmount.Add(discount.lineDiscount(item))
		}
	}

	// total_amount is DECIMAL(10,2); round so callers see what is stored
	discountAmount = discountAmount.Round(2)
	total := subtotal.Sub(discountAmount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return OrderTotals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
	}
}

// lineDiscount is what one qualifying line takes off the order.
func (d *Discount) lineDiscount(item *OrderItem) decimal.Decimal {
	switch d.DiscountType {
	case DiscountTypeAmount:
		// once per line, not per unit
		return d.DiscountValue
	case DiscountTypePercentage:
		return item.Price.Mul(d.DiscountValue).Div(decimalOneHundred).Mul(decimal.NewFromInt(int64(item.Quantity)))
	case DiscountTypeCoupon:
		// coupon redemption has no monetary rule yet
		return decimal.Zero
	default:
		// rejected earlier by ValidateType
		return decimal.Zero
	}
}

// ValidateType rejects a discount type outside the closed set. A nil discount is valid.
func (d *Discount) ValidateType() error {
	if d == nil {
		return nil
	}
	_, err := ParseDiscountType(string(d.DiscountType))
	return err
}

// ComponentGraph maps a parent menu item id to its component lines.
type ComponentGraph map[int][]*MenuItemComponent

// DetectComponentCycle reports whether adding parent → component would close a
// cycle in graph. Self-reference counts as a cycle.
func DetectComponentCycle(graph ComponentGraph, parentId int, componentId int) bool {
	if parentId == componentId {
		return true
	}
	// a cycle exists iff parent is reachable from component
	visited := map[int]bool{}
	stack := []int{componentId}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == parentId {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, edge := range graph[id] {
			stack = append(stack, edge.ComponentItemId)
		}
	}
	return false
}

// EffectiveCost is the item's own cost plus quantity × effective cost of every
// component. items must contain every reachable menu item with recipes loaded.
func EffectiveCost(itemId int, items map[int]*MenuItem, graph ComponentGraph) (decimal.Decimal, error) {
	return effectiveCost(itemId, items, graph, map[int]bool{}, 0)
}

func effectiveCost(itemId int, items map[int]*MenuItem, graph ComponentGraph, onPath map[int]bool, depth int) (decimal.Decimal, error) {
	if depth > MaxComponentDepth {
		return decimal.Zero, utils.NewValidation("components", fmt.Sprintf("composite depth exceeds %d", MaxComponentDepth))
	}
	if onPath[itemId] {
		return decimal.Zero, utils.NewValidation("components", fmt.Sprintf("component cycle through menu item %d", itemId))
	}
	item, ok := items[itemId]
	if !ok {
		return decimal.Zero, utils.NewNotFound("MenuItem", itemId)
	}

	onPath[itemId] = true
	defer delete(onPath, itemId)

	cost := item.CalculateCost()
	for _, edge := range graph[itemId] {
		componentCost, err := effectiveCost(edge.ComponentItemId, items, graph, onPath, depth+1)
		if err != nil {
			return decimal.Zero, err
		}
		cost = cost.Add(componentCost.Mul(decimal.NewFromFloat(edge.Quantity)))
	}
	return cost, nil
}

// StockDepletion is the planned change to one ingredient.
type StockDepletion struct {
	IngredientId int
	Previous     float64
	Used         float64
	Remaining    float64
}

// PlanStockDepletion computes recipe.quantity × orderQty for every recipe line
// against the current ingredient levels. Several lines on the same ingredient
// accumulate. When allowNegative is false, the first ingredient that would
// drop below zero yields an InsufficientStockError.
func PlanStockDepletion(recipes []*Recipe, ingredients map[int]*Ingredient, orderQty int, allowNegative bool) ([]StockDepletion, error) {
	remaining := make(map[int]float64, len(ingredients))
	var plan []StockDepletion
	for _, recipe := range recipes {
		ingredient, ok := ingredients[recipe.IngredientId]
		if !ok {
			return nil, utils.NewNotFound("Ingredient", recipe.IngredientId)
		}
		current, seen := remaining[ingredient.ID]
		if !seen {
			current = ingredient.Quantity
		}
		used := recipe.Quantity * float64(orderQty)
		next := current - used
		if !allowNegative && next < 0 {
			return nil, &utils.InsufficientStockError{
				IngredientId: ingredient.ID,
				Name:         ingredient.Name,
				Available:    current,
				Required:     used,
			}
		}
		remaining[ingredient.ID] = next
		plan = append(plan, StockDepletion{
			IngredientId: ingredient.ID,
			Previous:     current,
			Used:         used,
			Remaining:    next,
		})
	}
	return plan, nil
}
