package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/models"
	"gorm.io/gorm"
)

type discountReader struct {
	db *gorm.DB
}

func (r *discountReader) getDiscounts(ctx context.Context, ids []int) []*dataloader.Result[*models.Discount] {
	var results []models.Discount
	err := r.db.WithContext(ctx).Preload("ExcludedItems").Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Discount](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetDiscount(ctx context.Context, id int) (*models.Discount, error) {
	loaders := For(ctx)
	return loaders.discountLoader.Load(ctx, id)()
}

type userReader struct {
	db *gorm.DB
}

func (r *userReader) getUsers(ctx context.Context, ids []int) []*dataloader.Result[*models.User] {
	var results []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.User](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetUser(ctx context.Context, id int) (*models.User, error) {
	loaders := For(ctx)
	return loaders.userLoader.Load(ctx, id)()
}

type orderItemReader struct {
	db *gorm.DB
}

// batch function for orderItemLoader, keyed by order id
func (r *orderItemReader) getOrderItemsByOrder(ctx context.Context, ids []int) []*dataloader.Result[[]*models.OrderItem] {
	var results []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("id").Find(&results).Error
	if err != nil {
		return handleError[[]*models.OrderItem](len(ids), err)
	}
	return generateLoaderArrayResults(results, ids)
}

func GetOrderItems(ctx context.Context, orderId int) ([]*models.OrderItem, error) {
	loaders := For(ctx)
	return loaders.orderItemLoader.Load(ctx, orderId)()
}
