package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the lookups made while rendering one response.
type Loaders struct {
	categoryLoader   *dataloader.Loader[int, *models.Category]
	supplierLoader   *dataloader.Loader[int, *models.Supplier]
	ingredientLoader *dataloader.Loader[int, *models.Ingredient]
	menuItemLoader   *dataloader.Loader[int, *models.MenuItem]
	discountLoader   *dataloader.Loader[int, *models.Discount]
	userLoader       *dataloader.Loader[int, *models.User]

	recipeLoader    *dataloader.Loader[int, []*models.Recipe]
	orderItemLoader *dataloader.Loader[int, []*models.OrderItem]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	categoryReader := &categoryReader{db: conn}
	supplierReader := &supplierReader{db: conn}
	ingredientReader := &ingredientReader{db: conn}
	menuItemReader := &menuItemReader{db: conn}
	discountReader := &discountReader{db: conn}
	userReader := &userReader{db: conn}
	recipeReader := &recipeReader{db: conn}
	orderItemReader := &orderItemReader{db: conn}

	return &Loaders{
		categoryLoader:   dataloader.NewBatchedLoader(categoryReader.getCategories, dataloader.WithWait[int, *models.Category](time.Millisecond)),
		supplierLoader:   dataloader.NewBatchedLoader(supplierReader.getSuppliers, dataloader.WithWait[int, *models.Supplier](time.Millisecond)),
		ingredientLoader: dataloader.NewBatchedLoader(ingredientReader.getIngredients, dataloader.WithWait[int, *models.Ingredient](time.Millisecond)),
		menuItemLoader:   dataloader.NewBatchedLoader(menuItemReader.getMenuItems, dataloader.WithWait[int, *models.MenuItem](time.Millisecond)),
		discountLoader:   dataloader.NewBatchedLoader(discountReader.getDiscounts, dataloader.WithWait[int, *models.Discount](time.Millisecond)),
		userLoader:       dataloader.NewBatchedLoader(userReader.getUsers, dataloader.WithWait[int, *models.User](time.Millisecond)),

		recipeLoader:    dataloader.NewBatchedLoader(recipeReader.getRecipesByMenuItem, dataloader.WithWait[int, []*models.Recipe](time.Millisecond)),
		orderItemLoader: dataloader.NewBatchedLoader(orderItemReader.getOrderItemsByOrder, dataloader.WithWait[int, []*models.OrderItem](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// T must be struct
// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) (loaderResults []*dataloader.Result[[]*T]) {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		copy := result
		resultMap[result.GetReferenceId()] = append(resultMap[result.GetReferenceId()], &copy)
	}
	for _, id := range referenceIds {
		resultArray := resultMap[id]
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultArray})
	}
	return loaderResults
}
