package models

import (
	"context"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// first find in redis, then in db, cache result
// (may return NotFoundError)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		// cache is an optimisation; fall through to the db
		config.LogError(config.GetLogger(), utils.GetTypeName[T](), "GetResource", "reading cache", id, err)
		result = nil
	}
	if result != nil {
		return result, nil
	}

	// fetch from db
	result, err = utils.FetchModel[T](ctx, id, associations...)
	if err != nil {
		return nil, err
	}

	// store in redis
	if err := utils.StoreRedis[T](result, id); err != nil {
		config.LogError(config.GetLogger(), utils.GetTypeName[T](), "GetResource", "writing cache", id, err)
	}
	return result, nil
}
