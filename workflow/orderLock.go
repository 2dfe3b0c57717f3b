package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderLockTimeoutSeconds = 30

func orderLockName(orderId int) string {
	return fmt.Sprintf("order:%d", orderId)
}

// AcquireOrderLock serializes line commits per order across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that runs the commit transaction.
func AcquireOrderLock(tx *gorm.DB, orderId int) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, ?)", orderLockName(orderId), orderLockTimeoutSeconds).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire order lock for order_id=%d", orderId)
	}
	return nil
}

func ReleaseOrderLock(tx *gorm.DB, orderId int) {
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", orderLockName(orderId)).Scan(&_ok).Error
}

// lockOrderRow reads the order FOR UPDATE. It must be the first read in the
// transaction so later reads see every line committed before it.
func lockOrderRow(tx *gorm.DB, orderId int) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderId).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// obtainRedisOrderLock is a best-effort optimization; correctness relies on
// the advisory lock and row locks. Returns nil when no lock was taken.
func obtainRedisOrderLock(ctx context.Context, orderId int) *redislock.Lock {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}

	lock, err := locker.Obtain(ctx, "lock:"+orderLockName(orderId), orderLockTimeoutSeconds*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithFields(logrus.Fields{
			"field":    "CommitOrderLine",
			"order_id": orderId,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return nil
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"field":    "CommitOrderLine",
			"order_id": orderId,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return nil
	}
	return lock
}

func releaseRedisOrderLock(ctx context.Context, lock *redislock.Lock, orderId int) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		config.GetLogger().WithFields(logrus.Fields{
			"field":    "CommitOrderLine",
			"order_id": orderId,
		}).Warn("failed to release redis lock: " + err.Error())
	}
}
