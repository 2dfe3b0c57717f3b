package utils

import (
	"context"

	"github.com/mmdatafocus/kitchen_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return NotFoundError)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](ctx, config.GetDB(), id, associations...)
}

// same as FetchModel but inside the caller's transaction
func FetchModelTx[T any](ctx context.Context, tx *gorm.DB, id int, associations ...string) (*T, error) {
	dbCtx := tx.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, WrapDBError("fetch "+GetTypeName[T](), GetTypeName[T](), err)
	}
	return &result, nil
}

// fetch all models from db
func FetchAllModels[T any](ctx context.Context, orders ...string) ([]*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, order := range orders {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, WrapDBError("list "+GetTypeName[T](), GetTypeName[T](), err)
	}
	return results, nil
}
