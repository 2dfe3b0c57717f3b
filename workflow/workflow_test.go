package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBackoff(t *testing.T) {
	initial := 5 * time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := nextBackoff(initial, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s; got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestOrderLockName(t *testing.T) {
	assert.Equal(t, "order:17", orderLockName(17))
}

func TestCommitOrderLineInputDefaultsQuantity(t *testing.T) {
	input := CommitOrderLineInput{OrderId: 1, MenuItemId: 2}
	require.NoError(t, input.validate())
	assert.Equal(t, 1, input.Quantity)
}

func TestCommitOrderLineInputRejectsBadValues(t *testing.T) {
	var ve *utils.ValidationError

	negativeQty := CommitOrderLineInput{OrderId: 1, MenuItemId: 2, Quantity: -1}
	require.ErrorAs(t, negativeQty.validate(), &ve)

	missingOrder := CommitOrderLineInput{MenuItemId: 2, Quantity: 1}
	require.ErrorAs(t, missingOrder.validate(), &ve)

	price := decimal.NewFromInt(-3)
	negativePrice := CommitOrderLineInput{OrderId: 1, MenuItemId: 2, Quantity: 1, Price: &price}
	require.ErrorAs(t, negativePrice.validate(), &ve)
}

func TestDispatchOnceWithoutDatabase(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
}

func TestReleaseRedisOrderLockNil(t *testing.T) {
	// nothing held, nothing to do
	releaseRedisOrderLock(context.Background(), nil, 1)
}

func TestCheckOrderable(t *testing.T) {
	item := &models.MenuItem{ID: 7}
	assert.NoError(t, checkOrderable(item))

	item.IsAvailable = utils.NewTrue()
	assert.NoError(t, checkOrderable(item))

	item.IsAvailable = utils.NewFalse()
	err := checkOrderable(item)
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "menu_item_id", ve.Field)
}
