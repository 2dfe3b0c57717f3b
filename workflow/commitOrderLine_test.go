package workflow_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/mmdatafocus/kitchen_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "kitchen_test")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "true")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	return utils.SetCorrelationIdInContext(context.Background(), "test-correlation")
}

func ingredientQty(t *testing.T, id int) float64 {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, config.GetDB().First(&ing, id).Error)
	return ing.Quantity
}

func TestCommitOrderLineLifecycle(t *testing.T) {
	ctx := setupIntegration(t)

	bun, err := models.CreateIngredient(ctx, &models.NewIngredient{Name: "Bun", Quantity: 10, Unit: "pcs", CostPerUnit: decimal.RequireFromString("0.20")})
	require.NoError(t, err)
	patty, err := models.CreateIngredient(ctx, &models.NewIngredient{Name: "Patty", Quantity: 5, Unit: "pcs", CostPerUnit: decimal.RequireFromString("0.50")})
	require.NoError(t, err)

	burger, err := models.CreateMenuItem(ctx, &models.NewMenuItem{Name: "Burger", Price: decimal.RequireFromString("10.00"), IsAvailable: utils.NewTrue()})
	require.NoError(t, err)
	_, err = models.CreateRecipe(ctx, &models.NewRecipe{MenuItemId: burger.ID, IngredientId: bun.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = models.CreateRecipe(ctx, &models.NewRecipe{MenuItemId: burger.ID, IngredientId: patty.ID, Quantity: 1})
	require.NoError(t, err)

	cost, err := models.GetMenuItemCost(ctx, burger.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.70", cost.StringFixed(2))

	order, err := models.CreateOrder(ctx, &models.NewOrder{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	// new line
	res, err := workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, MenuItemId: burger.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.Totals.Total.StringFixed(2))
	assert.Len(t, res.Depletions, 2)
	assert.Equal(t, 8.0, ingredientQty(t, bun.ID))
	assert.Equal(t, 3.0, ingredientQty(t, patty.ID))
	lineId := res.OrderItem.ID

	// update depletes by the full new quantity
	res, err = workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, OrderItemId: &lineId, MenuItemId: burger.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, lineId, res.OrderItem.ID)
	assert.Equal(t, "30.00", res.Totals.Total.StringFixed(2))
	assert.Equal(t, 5.0, ingredientQty(t, bun.ID))
	assert.Equal(t, 0.0, ingredientQty(t, patty.ID))

	// insufficient stock rolls everything back
	t.Setenv("ALLOW_NEGATIVE_STOCK", "false")
	_, err = workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, MenuItemId: burger.ID, Quantity: 1})
	var insufficient *utils.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, patty.ID, insufficient.IngredientId)
	assert.Equal(t, 5.0, ingredientQty(t, bun.ID))
	items, err := models.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	totals, err := models.GetOrderTotals(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", totals.Total.StringFixed(2))
	t.Setenv("ALLOW_NEGATIVE_STOCK", "true")

	// removal recomputes the total and leaves stock alone
	removed, err := workflow.RemoveOrderLine(ctx, lineId)
	require.NoError(t, err)
	assert.True(t, removed.Total.IsZero())
	assert.Equal(t, 5.0, ingredientQty(t, bun.ID))

	var stored models.Order
	require.NoError(t, config.GetDB().First(&stored, order.ID).Error)
	assert.True(t, stored.TotalAmount.IsZero())

	movements, err := models.ListStockMovements(ctx, bun.ID, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	// unknown order
	_, err = workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: 999999, MenuItemId: burger.ID, Quantity: 1})
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestCommitOrderLineConcurrent(t *testing.T) {
	ctx := setupIntegration(t)

	salt, err := models.CreateIngredient(ctx, &models.NewIngredient{Name: "Salt", Quantity: 100, Unit: "g"})
	require.NoError(t, err)
	fries, err := models.CreateMenuItem(ctx, &models.NewMenuItem{Name: "Fries", Price: decimal.RequireFromString("2.50"), IsAvailable: utils.NewTrue()})
	require.NoError(t, err)
	_, err = models.CreateRecipe(ctx, &models.NewRecipe{MenuItemId: fries.ID, IngredientId: salt.ID, Quantity: 1})
	require.NoError(t, err)

	order, err := models.CreateOrder(ctx, &models.NewOrder{})
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, MenuItemId: fries.ID, Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 90.0, ingredientQty(t, salt.ID))
	totals, err := models.GetOrderTotals(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", totals.Total.StringFixed(2))

	var stored models.Order
	require.NoError(t, config.GetDB().First(&stored, order.ID).Error)
	assert.Equal(t, "25.00", stored.TotalAmount.StringFixed(2))

	// every commit left one outbox row
	published := 0
	dispatcher := workflow.NewOutboxDispatcher(config.GetDB(), logrus.New())
	dispatcher.Publish = func(ctx context.Context, msg config.PubSubMessage) (string, error) {
		published++
		return fmt.Sprintf("msg-%d", msg.ID), nil
	}
	sent := dispatcher.DispatchOnce(ctx)
	assert.Equal(t, workers, sent)
	assert.Equal(t, workers, published)

	var pending int64
	require.NoError(t, config.GetDB().Model(&models.OutboxRecord{}).
		Where("publish_status <> ?", models.OutboxPublishStatusSent).
		Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestRemoveOrderLineRacesUpdate(t *testing.T) {
	ctx := setupIntegration(t)

	cola, err := models.CreateMenuItem(ctx, &models.NewMenuItem{Name: "Cola", Price: decimal.RequireFromString("1.50"), IsAvailable: utils.NewTrue()})
	require.NoError(t, err)

	for round := 0; round < 5; round++ {
		order, err := models.CreateOrder(ctx, &models.NewOrder{})
		require.NoError(t, err)
		res, err := workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, MenuItemId: cola.ID, Quantity: 1})
		require.NoError(t, err)
		lineId := res.OrderItem.ID

		var wg sync.WaitGroup
		var updateErr, removeErr error
		start := time.Now()
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, updateErr = workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, OrderItemId: &lineId, MenuItemId: cola.ID, Quantity: 2})
		}()
		go func() {
			defer wg.Done()
			_, removeErr = workflow.RemoveOrderLine(ctx, lineId)
		}()
		wg.Wait()

		// a lock wait timeout would take the full GET_LOCK window
		assert.Less(t, time.Since(start), 10*time.Second)
		require.NoError(t, removeErr)
		if updateErr != nil {
			require.ErrorIs(t, updateErr, utils.ErrorRecordNotFound)
		}

		items, err := models.ListOrderItems(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
		totals, err := models.GetOrderTotals(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, totals.Total.IsZero())
	}
}

func TestCommitOrderLineRejectsUnavailableItem(t *testing.T) {
	ctx := setupIntegration(t)

	soup, err := models.CreateMenuItem(ctx, &models.NewMenuItem{Name: "Soup", Price: decimal.RequireFromString("4.00"), IsAvailable: utils.NewFalse()})
	require.NoError(t, err)
	order, err := models.CreateOrder(ctx, &models.NewOrder{})
	require.NoError(t, err)

	_, err = workflow.CommitOrderLine(ctx, &workflow.CommitOrderLineInput{OrderId: order.ID, MenuItemId: soup.ID, Quantity: 1})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "menu_item_id", ve.Field)

	items, err := models.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMenuItemChangesRefreshCachedDiscount(t *testing.T) {
	ctx := setupIntegration(t)

	tea, err := models.CreateMenuItem(ctx, &models.NewMenuItem{Name: "Tea", Price: decimal.RequireFromString("2.00"), IsAvailable: utils.NewTrue()})
	require.NoError(t, err)
	discount, err := models.CreateDiscount(ctx, &models.NewDiscount{
		Name:            "Happy hour",
		DiscountType:    models.DiscountTypePercentage,
		DiscountValue:   decimal.RequireFromString("10"),
		IsActive:        utils.NewTrue(),
		ExcludedItemIds: []int{tea.ID},
	})
	require.NoError(t, err)

	// warm the cache
	cached, err := models.GetDiscount(ctx, discount.ID)
	require.NoError(t, err)
	require.Len(t, cached.ExcludedItems, 1)

	_, err = models.UpdateMenuItem(ctx, tea.ID, &models.NewMenuItem{Name: "Green tea", Price: decimal.RequireFromString("2.50"), IsAvailable: utils.NewTrue()})
	require.NoError(t, err)
	cached, err = models.GetDiscount(ctx, discount.ID)
	require.NoError(t, err)
	require.Len(t, cached.ExcludedItems, 1)
	assert.Equal(t, "Green tea", cached.ExcludedItems[0].Name)

	_, err = models.DeleteMenuItem(ctx, tea.ID)
	require.NoError(t, err)
	cached, err = models.GetDiscount(ctx, discount.ID)
	require.NoError(t, err)
	assert.Empty(t, cached.ExcludedItems)
}
