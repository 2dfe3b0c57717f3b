package models_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s; got %s", want, got.String())
	}
}

func TestCalculateCostBurger(t *testing.T) {
	bun := &models.Ingredient{ID: 1, Name: "Bun", CostPerUnit: dec("0.50")}
	burger := models.MenuItem{
		Name:     "Burger",
		MiscCost: dec("0.20"),
		RecipeItems: []*models.Recipe{
			{MenuItemId: 1, IngredientId: bun.ID, Ingredient: bun, Quantity: 1},
		},
	}

	assertDecimal(t, "0.70", burger.CalculateCost())
}

func TestCalculateCostFormula(t *testing.T) {
	cases := []struct {
		name    string
		recipes []*models.Recipe
		misc    string
		want    string
	}{
		{
			name: "no recipe lines is misc cost",
			misc: "1.25",
			want: "1.25",
		},
		{
			name: "fractional quantities",
			recipes: []*models.Recipe{
				{Ingredient: &models.Ingredient{CostPerUnit: dec("2.00")}, Quantity: 0.25},
				{Ingredient: &models.Ingredient{CostPerUnit: dec("0.10")}, Quantity: 3},
			},
			misc: "0",
			want: "0.80",
		},
		{
			name: "lines without a loaded ingredient are skipped",
			recipes: []*models.Recipe{
				{Quantity: 5},
				{Ingredient: &models.Ingredient{CostPerUnit: dec("1.00")}, Quantity: 2},
			},
			misc: "0.50",
			want: "2.50",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDecimal(t, tc.want, models.CalculateCost(tc.recipes, dec(tc.misc)))
		})
	}
}

func twoLineOrder() []*models.OrderItem {
	return []*models.OrderItem{
		{ID: 1, MenuItemId: 10, Price: dec("10.00"), Quantity: 2},
		{ID: 2, MenuItemId: 20, Price: dec("5.00"), Quantity: 1},
	}
}

func activeDiscount(kind models.DiscountType, value string) *models.Discount {
	return &models.Discount{
		ID:            1,
		DiscountType:  kind,
		DiscountValue: dec(value),
		IsActive:      utils.NewTrue(),
	}
}

func TestCalculateOrderTotalScenarios(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no discount", func(t *testing.T) {
		totals := models.CalculateOrderTotal(twoLineOrder(), nil, now)
		assertDecimal(t, "25.00", totals.Subtotal)
		assertDecimal(t, "0", totals.DiscountAmount)
		assertDecimal(t, "25.00", totals.Total)
	})

	t.Run("percentage on every line", func(t *testing.T) {
		totals := models.CalculateOrderTotal(twoLineOrder(), activeDiscount(models.DiscountTypePercentage, "10"), now)
		assertDecimal(t, "2.50", totals.DiscountAmount)
		assertDecimal(t, "22.50", totals.Total)
	})

	t.Run("percentage with excluded item", func(t *testing.T) {
		discount := activeDiscount(models.DiscountTypePercentage, "10")
		discount.ExcludedItems = []*models.MenuItem{{ID: 20, Name: "Fries"}}
		totals := models.CalculateOrderTotal(twoLineOrder(), discount, now)
		assertDecimal(t, "2.00", totals.DiscountAmount)
		assertDecimal(t, "23.00", totals.Total)
	})

	t.Run("amount applies once per qualifying line", func(t *testing.T) {
		totals := models.CalculateOrderTotal(twoLineOrder(), activeDiscount(models.DiscountTypeAmount, "3"), now)
		assertDecimal(t, "6", totals.DiscountAmount)
		assertDecimal(t, "19.00", totals.Total)
	})

	t.Run("coupon has no monetary effect", func(t *testing.T) {
		totals := models.CalculateOrderTotal(twoLineOrder(), activeDiscount(models.DiscountTypeCoupon, "50"), now)
		assertDecimal(t, "0", totals.DiscountAmount)
		assertDecimal(t, "25.00", totals.Total)
	})

	t.Run("inactive discount is ignored", func(t *testing.T) {
		discount := activeDiscount(models.DiscountTypePercentage, "10")
		discount.IsActive = utils.NewFalse()
		totals := models.CalculateOrderTotal(twoLineOrder(), discount, now)
		assertDecimal(t, "25.00", totals.Total)
	})

	t.Run("expired discount is ignored", func(t *testing.T) {
		discount := activeDiscount(models.DiscountTypeAmount, "5")
		end := now.Add(-time.Hour)
		discount.EndDate = &end
		totals := models.CalculateOrderTotal(twoLineOrder(), discount, now)
		assertDecimal(t, "25.00", totals.Total)
	})
}

func TestCalculateOrderTotalNeverNegative(t *testing.T) {
	now := time.Now()
	items := []*models.OrderItem{
		{MenuItemId: 1, Price: dec("2.00"), Quantity: 1},
		{MenuItemId: 2, Price: dec("1.00"), Quantity: 1},
	}
	totals := models.CalculateOrderTotal(items, activeDiscount(models.DiscountTypeAmount, "100"), now)

	assertDecimal(t, "3.00", totals.Subtotal)
	assertDecimal(t, "200", totals.DiscountAmount)
	assert.True(t, totals.Total.IsZero(), "total should clamp to zero, got %s", totals.Total)
}

func TestCalculateOrderTotalIdempotent(t *testing.T) {
	now := time.Now()
	items := twoLineOrder()
	discount := activeDiscount(models.DiscountTypePercentage, "10")

	first := models.CalculateOrderTotal(items, discount, now)
	second := models.CalculateOrderTotal(items, discount, now)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
}

func TestCalculateOrderTotalRoundsToCents(t *testing.T) {
	items := []*models.OrderItem{{MenuItemId: 1, Price: dec("3.33"), Quantity: 1}}
	totals := models.CalculateOrderTotal(items, activeDiscount(models.DiscountTypePercentage, "10"), time.Now())

	assertDecimal(t, "0.33", totals.DiscountAmount)
	assertDecimal(t, "3.00", totals.Total)
}

func TestUnknownDiscountTypeIsRejected(t *testing.T) {
	discount := activeDiscount(models.DiscountType("bogo"), "10")

	var ve *utils.ValidationError
	require.ErrorAs(t, discount.ValidateType(), &ve)
	assert.Equal(t, "discount_type", ve.Field)
	assert.NoError(t, activeDiscount(models.DiscountTypeAmount, "1").ValidateType())
	assert.NoError(t, (*models.Discount)(nil).ValidateType())

	assert.NotPanics(t, func() {
		totals := models.CalculateOrderTotal(twoLineOrder(), discount, time.Now())
		assertDecimal(t, "0", totals.DiscountAmount)
	})
}

func TestFreeItemsContributeNothing(t *testing.T) {
	free := models.OrderItem{Price: dec("99.99"), Quantity: 7, IsFree: true}
	assert.True(t, free.Subtotal().IsZero())

	items := append(twoLineOrder(), &free)
	totals := models.CalculateOrderTotal(items, nil, time.Now())
	assertDecimal(t, "25.00", totals.Total)
}

func TestEffectiveCostComposite(t *testing.T) {
	patty := &models.Ingredient{ID: 1, CostPerUnit: dec("1.00")}
	potato := &models.Ingredient{ID: 2, CostPerUnit: dec("0.40")}

	items := map[int]*models.MenuItem{
		1: {ID: 1, Name: "Combo", MiscCost: dec("0.10")},
		2: {ID: 2, Name: "Burger", RecipeItems: []*models.Recipe{{Ingredient: patty, Quantity: 1}}},
		3: {ID: 3, Name: "Fries", RecipeItems: []*models.Recipe{{Ingredient: potato, Quantity: 2}}},
	}
	graph := models.ComponentGraph{
		1: {
			{ParentItemId: 1, ComponentItemId: 2, Quantity: 1},
			{ParentItemId: 1, ComponentItemId: 3, Quantity: 2},
		},
	}

	cost, err := models.EffectiveCost(1, items, graph)
	require.NoError(t, err)
	// 0.10 + 1×1.00 + 2×0.80
	assertDecimal(t, "2.70", cost)
}

func TestEffectiveCostRejectsCycle(t *testing.T) {
	items := map[int]*models.MenuItem{
		1: {ID: 1, Name: "A"},
		2: {ID: 2, Name: "B"},
	}
	graph := models.ComponentGraph{
		1: {{ParentItemId: 1, ComponentItemId: 2, Quantity: 1}},
		2: {{ParentItemId: 2, ComponentItemId: 1, Quantity: 1}},
	}

	_, err := models.EffectiveCost(1, items, graph)
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestEffectiveCostDepthCap(t *testing.T) {
	items := map[int]*models.MenuItem{}
	graph := models.ComponentGraph{}
	chain := models.MaxComponentDepth + 2
	for id := 1; id <= chain; id++ {
		items[id] = &models.MenuItem{ID: id, MiscCost: dec("1")}
		if id < chain {
			graph[id] = []*models.MenuItemComponent{{ParentItemId: id, ComponentItemId: id + 1, Quantity: 1}}
		}
	}

	_, err := models.EffectiveCost(1, items, graph)
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)

	// a chain exactly at the cap is fine
	_, err = models.EffectiveCost(3, items, graph)
	require.NoError(t, err)
}

func TestDetectComponentCycle(t *testing.T) {
	graph := models.ComponentGraph{
		1: {{ParentItemId: 1, ComponentItemId: 2, Quantity: 1}},
		2: {{ParentItemId: 2, ComponentItemId: 3, Quantity: 1}},
	}

	assert.True(t, models.DetectComponentCycle(graph, 4, 4), "self reference")
	assert.True(t, models.DetectComponentCycle(graph, 2, 1), "A→B→A")
	assert.True(t, models.DetectComponentCycle(graph, 3, 1), "longer cycle")
	assert.False(t, models.DetectComponentCycle(graph, 3, 4))
	assert.False(t, models.DetectComponentCycle(graph, 1, 3), "shortcut edge is not a cycle")
}

func TestPlanStockDepletion(t *testing.T) {
	bun := &models.Ingredient{ID: 1, Name: "Bun", Quantity: 10}
	recipes := []*models.Recipe{{IngredientId: 1, Quantity: 1.5}}
	ingredients := map[int]*models.Ingredient{1: bun}

	plan, err := models.PlanStockDepletion(recipes, ingredients, 4, true)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, 6.0, plan[0].Used)
	assert.Equal(t, 4.0, plan[0].Remaining)
	assert.Equal(t, 10.0, plan[0].Previous)
}

func TestPlanStockDepletionNegative(t *testing.T) {
	salt := &models.Ingredient{ID: 7, Name: "Salt", Quantity: 1}
	recipes := []*models.Recipe{{IngredientId: 7, Quantity: 2}}
	ingredients := map[int]*models.Ingredient{7: salt}

	plan, err := models.PlanStockDepletion(recipes, ingredients, 1, true)
	require.NoError(t, err)
	assert.Equal(t, -1.0, plan[0].Remaining)

	_, err = models.PlanStockDepletion(recipes, ingredients, 1, false)
	var stockErr *utils.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.IngredientId)
	assert.Equal(t, 1.0, stockErr.Available)
	assert.Equal(t, 2.0, stockErr.Required)
}

func TestPlanStockDepletionAccumulatesSameIngredient(t *testing.T) {
	ingredients := map[int]*models.Ingredient{1: {ID: 1, Name: "Cheese", Quantity: 5}}
	recipes := []*models.Recipe{
		{IngredientId: 1, Quantity: 1},
		{IngredientId: 1, Quantity: 2},
	}

	plan, err := models.PlanStockDepletion(recipes, ingredients, 1, true)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, 4.0, plan[0].Remaining)
	assert.Equal(t, 2.0, plan[1].Remaining)
}

func TestPlanStockDepletionMissingIngredient(t *testing.T) {
	_, err := models.PlanStockDepletion([]*models.Recipe{{IngredientId: 9, Quantity: 1}}, map[int]*models.Ingredient{}, 1, true)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}
