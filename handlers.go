package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/middlewares"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/mmdatafocus/kitchen_backend/workflow"
)

func createHandler[In any, Out any](create func(context.Context, *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if !bindJSON(c, &input) {
			return
		}
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func updateHandler[In any, Out any](update func(context.Context, int, *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var input In
		if !bindJSON(c, &input) {
			return
		}
		result, err := update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// byIdHandler serves get and delete, which share a signature.
func byIdHandler[Out any](fn func(context.Context, int) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		result, err := fn(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func optionalString(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

func listSuppliersHandler(c *gin.Context) {
	results, err := models.ListSuppliers(c.Request.Context(), optionalString(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func listCategoriesHandler(c *gin.Context) {
	results, err := models.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

type ingredientView struct {
	*models.Ingredient
	Supplier     *models.Supplier `json:"supplier,omitempty"`
	NeedsReorder bool             `json:"needs_reorder"`
}

func listIngredientsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	results, err := models.ListIngredients(ctx, optionalString(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]ingredientView, 0, len(results))
	for _, ing := range results {
		view := ingredientView{Ingredient: ing, NeedsReorder: ing.NeedsReorder()}
		if ing.SupplierId != nil {
			supplier, err := middlewares.GetSupplier(ctx, *ing.SupplierId)
			if err != nil {
				respondError(c, err)
				return
			}
			view.Supplier = supplier
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

type stockAdjustment struct {
	Delta float64 `json:"delta"`
	Note  string  `json:"note"`
}

func adjustIngredientStockHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input stockAdjustment
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.AdjustIngredientStock(c.Request.Context(), id, input.Delta, input.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listStockMovementsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, ok := optionalIntQuery(c, "limit")
	if !ok {
		return
	}
	results, err := models.ListStockMovements(c.Request.Context(), id, utils.DereferencePtr(limit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

type menuItemView struct {
	*models.MenuItem
	Category *models.Category `json:"category,omitempty"`
}

func listMenuItemsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	categoryId, ok := optionalIntQuery(c, "category_id")
	if !ok {
		return
	}
	availableOnly := c.Query("available") == "true"
	results, err := models.ListMenuItems(ctx, categoryId, availableOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]menuItemView, 0, len(results))
	for _, item := range results {
		view := menuItemView{MenuItem: item}
		if item.CategoryId != nil {
			category, err := middlewares.GetCategory(ctx, *item.CategoryId)
			if err != nil {
				respondError(c, err)
				return
			}
			view.Category = category
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

func menuItemRecipesHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	results, err := middlewares.GetRecipesByMenuItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func menuItemComponentsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	results, err := models.ListMenuItemComponents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func menuItemCostHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cost, err := models.GetMenuItemCost(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	effective, err := models.GetMenuItemEffectiveCost(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"menu_item_id":   id,
		"cost":           cost.StringFixed(2),
		"effective_cost": effective.StringFixed(2),
	})
}

func listDiscountsHandler(c *gin.Context) {
	results, err := models.ListDiscounts(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func couponHandler(c *gin.Context) {
	result, err := models.GetDiscountByCouponCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"discount": result,
		"is_valid": result.IsValid(),
	})
}

func lowStockReportHandler(c *gin.Context) {
	rows, err := models.GetLowStockReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// currentUserHandler returns the signed-in customer; guests get 204.
func currentUserHandler(c *gin.Context) {
	user, err := models.GetCurrentUser(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, user)
}

// isStaff reports whether the caller may see every customer's orders.
func isStaff(ctx context.Context) bool {
	staff, ok := utils.GetIsStaffFromContext(ctx)
	return ok && staff
}

// canAccessOrder lets staff see every order and customers only their own.
// Guest orders are reachable by id.
func canAccessOrder(ctx context.Context, order *models.Order) bool {
	if isStaff(ctx) || order.CustomerId == nil {
		return true
	}
	customerId := utils.CustomerIdFromContext(ctx)
	return customerId != nil && *customerId == *order.CustomerId
}

// authorizeOrder writes a 404 and returns false when the caller may not touch the order.
func authorizeOrder(c *gin.Context, orderId int) bool {
	ctx := c.Request.Context()
	order, err := utils.FetchModel[models.Order](ctx, orderId)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !canAccessOrder(ctx, order) {
		respondError(c, utils.NewNotFound("Order", orderId))
		return false
	}
	return true
}

type orderView struct {
	*models.Order
	Label string `json:"status_label"`
}

func listOrdersHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var status *models.OrderStatus
	if raw := optionalString(c, "status"); raw != nil {
		s, err := models.ParseOrderStatus(*raw)
		if err != nil {
			respondError(c, err)
			return
		}
		status = &s
	}
	customerId, ok := optionalIntQuery(c, "customer_id")
	if !ok {
		return
	}
	if !isStaff(ctx) {
		customerId = utils.CustomerIdFromContext(ctx)
		if customerId == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}

	orders, err := models.ListOrders(ctx, status, customerId)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		items, err := middlewares.GetOrderItems(ctx, order.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, item := range items {
			menuItem, err := middlewares.GetMenuItem(ctx, item.MenuItemId)
			if err != nil {
				respondError(c, err)
				return
			}
			item.MenuItem = menuItem
		}
		order.Items = items
		if order.DiscountId != nil {
			discount, err := middlewares.GetDiscount(ctx, *order.DiscountId)
			if err != nil {
				respondError(c, err)
				return
			}
			order.Discount = discount
		}
		views = append(views, orderView{Order: order, Label: order.Status.Label()})
	}
	c.JSON(http.StatusOK, views)
}

func getOrderHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	order, err := models.GetOrder(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canAccessOrder(ctx, order) {
		respondError(c, utils.NewNotFound("Order", id))
		return
	}
	c.JSON(http.StatusOK, orderView{Order: order, Label: order.Status.Label()})
}

func orderTotalsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !authorizeOrder(c, id) {
		return
	}
	totals, err := models.GetOrderTotals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func updateOrderHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !authorizeOrder(c, id) {
		return
	}
	var input models.NewOrder
	if !bindJSON(c, &input) {
		return
	}
	order, err := models.UpdateOrder(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView{Order: order, Label: order.Status.Label()})
}

type orderStatusInput struct {
	Status models.OrderStatus `json:"status"`
}

func updateOrderStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input orderStatusInput
	if !bindJSON(c, &input) {
		return
	}
	order, err := models.UpdateOrderStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView{Order: order, Label: order.Status.Label()})
}

// restrictLineInput drops price overrides and comps unless the caller is staff.
func restrictLineInput(ctx context.Context, input *workflow.CommitOrderLineInput) {
	if isStaff(ctx) {
		return
	}
	input.Price = nil
	input.IsFree = false
}

// commitOrderLineHandler creates a line, or updates one when the route carries lineId.
func commitOrderLineHandler(c *gin.Context) {
	orderId, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input workflow.CommitOrderLineInput
	if !bindJSON(c, &input) {
		return
	}
	if !authorizeOrder(c, orderId) {
		return
	}
	input.OrderId = orderId
	input.OrderItemId = nil
	restrictLineInput(c.Request.Context(), &input)
	status := http.StatusCreated
	if c.Param("lineId") != "" {
		lineId, ok := idParam(c, "lineId")
		if !ok {
			return
		}
		input.OrderItemId = &lineId
		status = http.StatusOK
	}

	result, err := workflow.CommitOrderLine(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, result)
}

func removeOrderLineHandler(c *gin.Context) {
	orderId, ok := idParam(c, "id")
	if !ok {
		return
	}
	lineId, ok := idParam(c, "lineId")
	if !ok {
		return
	}
	if !authorizeOrder(c, orderId) {
		return
	}
	ctx := c.Request.Context()
	item, err := models.GetOrderItem(ctx, lineId)
	if err != nil {
		respondError(c, err)
		return
	}
	if item.OrderId != orderId {
		respondError(c, utils.NewNotFound("OrderItem", lineId))
		return
	}
	totals, err := workflow.RemoveOrderLine(ctx, lineId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func requeueDeadOutboxHandler(c *gin.Context) {
	n, err := models.RequeueDeadOutboxRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requeued": n})
}

func registerRoutes(api *gin.RouterGroup) {
	// public reads
	api.GET("/categories", listCategoriesHandler)
	api.GET("/categories/:id", byIdHandler(models.GetCategory))
	api.GET("/menu-items", listMenuItemsHandler)
	api.GET("/menu-items/:id", byIdHandler(models.GetMenuItem))
	api.GET("/menu-items/:id/components", menuItemComponentsHandler)
	api.GET("/discounts/:id", byIdHandler(models.GetDiscount))
	api.GET("/coupons/:code", couponHandler)
	api.GET("/me", currentUserHandler)

	// orders
	api.POST("/orders", createHandler(models.CreateOrder))
	api.GET("/orders", listOrdersHandler)
	api.GET("/orders/:id", getOrderHandler)
	api.PUT("/orders/:id", updateOrderHandler)
	api.GET("/orders/:id/totals", orderTotalsHandler)
	api.POST("/orders/:id/lines", commitOrderLineHandler)
	api.PUT("/orders/:id/lines/:lineId", commitOrderLineHandler)
	api.DELETE("/orders/:id/lines/:lineId", removeOrderLineHandler)

	staff := api.Group("", middlewares.RequireStaff())

	staff.GET("/suppliers", listSuppliersHandler)
	staff.GET("/suppliers/:id", byIdHandler(models.GetSupplier))
	staff.POST("/suppliers", createHandler(models.CreateSupplier))
	staff.PUT("/suppliers/:id", updateHandler(models.UpdateSupplier))
	staff.DELETE("/suppliers/:id", byIdHandler(models.DeleteSupplier))

	staff.POST("/categories", createHandler(models.CreateCategory))
	staff.PUT("/categories/:id", updateHandler(models.UpdateCategory))
	staff.DELETE("/categories/:id", byIdHandler(models.DeleteCategory))

	staff.GET("/ingredients", listIngredientsHandler)
	staff.GET("/ingredients/:id", byIdHandler(models.GetIngredient))
	staff.POST("/ingredients", createHandler(models.CreateIngredient))
	staff.PUT("/ingredients/:id", updateHandler(models.UpdateIngredient))
	staff.DELETE("/ingredients/:id", byIdHandler(models.DeleteIngredient))
	staff.POST("/ingredients/:id/adjust", adjustIngredientStockHandler)
	staff.GET("/ingredients/:id/movements", listStockMovementsHandler)

	staff.POST("/menu-items", createHandler(models.CreateMenuItem))
	staff.PUT("/menu-items/:id", updateHandler(models.UpdateMenuItem))
	staff.DELETE("/menu-items/:id", byIdHandler(models.DeleteMenuItem))
	staff.GET("/menu-items/:id/recipes", menuItemRecipesHandler)
	staff.GET("/menu-items/:id/cost", menuItemCostHandler)
	staff.POST("/menu-items/:id/image", uploadMenuItemImageHandler(mediaStore))
	staff.DELETE("/menu-items/:id/image", removeMenuItemImageHandler(mediaStore))

	staff.POST("/recipes", createHandler(models.CreateRecipe))
	staff.PUT("/recipes/:id", updateHandler(models.UpdateRecipe))
	staff.DELETE("/recipes/:id", byIdHandler(models.DeleteRecipe))

	staff.POST("/menu-item-components", createHandler(models.CreateMenuItemComponent))
	staff.PUT("/menu-item-components/:id", updateHandler(models.UpdateMenuItemComponent))
	staff.DELETE("/menu-item-components/:id", byIdHandler(models.DeleteMenuItemComponent))

	staff.GET("/discounts", listDiscountsHandler)
	staff.POST("/discounts", createHandler(models.CreateDiscount))
	staff.PUT("/discounts/:id", updateHandler(models.UpdateDiscount))
	staff.DELETE("/discounts/:id", byIdHandler(models.DeleteDiscount))

	staff.PATCH("/orders/:id/status", updateOrderStatusHandler)
	staff.DELETE("/orders/:id", byIdHandler(models.DeleteOrder))

	staff.GET("/reports/low-stock", lowStockReportHandler)
	staff.POST("/internal/ops/outbox/requeue-dead", requeueDeadOutboxHandler)
}
