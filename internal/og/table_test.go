package og

import (
	"testing"

	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

var sym = schema.NewSymbol("DOGE/USDT")

func limit(qty float64) schema.Order {
	return schema.Order{
		Symbol:   sym,
		Side:     schema.SideBuy,
		Type:     schema.OrderTypeLimit,
		Price:    schema.PriceFromFloat(0.32),
		Quantity: schema.QuantityFromFloat(qty),
	}
}

func TestLifecycle(t *testing.T) {
	tbl, err := NewTable(4)
	require.NoError(t, err)

	o, err := tbl.Create(limit(10), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), o.ID)
	assert.Equal(t, schema.OrderStatusPending, o.Status)
	assert.Equal(t, int64(100), o.CreatedAt)

	_, err = tbl.Open(o.ID, 101)
	require.NoError(t, err)
	_, err = tbl.Open(o.ID, 101)
	assert.True(t, errors.Is(err, exception.ErrOrderInvalidTransition))

	o, err = tbl.Fill(o.ID, schema.QuantityFromFloat(4), 102)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusPartiallyFilled, o.Status)
	assert.Equal(t, schema.QuantityFromFloat(6), o.Remaining())

	_, err = tbl.Fill(o.ID, schema.QuantityFromFloat(7), 103)
	assert.True(t, errors.Is(err, exception.ErrOrderInvalidFill), "overfill")

	o, err = tbl.Fill(o.ID, schema.QuantityFromFloat(6), 104)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusFilled, o.Status)

	_, err = tbl.Cancel(o.ID, 105)
	assert.True(t, errors.Is(err, exception.ErrOrderInvalidTransition), "filled orders cannot be cancelled")

	final, ok := tbl.Release(o.ID)
	require.True(t, ok)
	assert.Equal(t, schema.OrderStatusFilled, final.Status)
	assert.Zero(t, tbl.Count())
	assert.Equal(t, 4, tbl.Available())
}

func TestCancelReleasesSlot(t *testing.T) {
	tbl, err := NewTable(2)
	require.NoError(t, err)

	a, _ := tbl.Create(limit(1), 1)
	b, _ := tbl.Create(limit(1), 1)
	_, err = tbl.Create(limit(1), 1)
	assert.ErrorIs(t, err, exception.ErrPoolExhausted)

	tbl.Open(a.ID, 2)
	tbl.Open(b.ID, 2)
	assert.Equal(t, []uint64{1, 2}, tbl.ActiveIDs(sym))
	assert.Empty(t, tbl.ActiveIDs(schema.NewSymbol("BTC/USDT")))

	final, err := tbl.Cancel(a.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusCancelled, final.Status)
	assert.Equal(t, schema.QuantityFromFloat(1), final.Remaining())

	_, ok := tbl.Order(a.ID)
	assert.False(t, ok)
	_, err = tbl.Cancel(a.ID, 4)
	assert.ErrorIs(t, err, exception.ErrOrderNotFound)

	c, err := tbl.Create(limit(1), 5)
	require.NoError(t, err, "cancelled slot is reusable")
	assert.Equal(t, uint64(3), c.ID, "ids are never reused")

	pending, err := tbl.Create(limit(1), 5)
	assert.Error(t, err)
	assert.Nil(t, pending)
}

func TestPendingIsNotActive(t *testing.T) {
	tbl, err := NewTable(2)
	require.NoError(t, err)

	o, _ := tbl.Create(limit(1), 1)
	_, err = tbl.Cancel(o.ID, 2)
	assert.Error(t, err)
	assert.Empty(t, tbl.ActiveIDs(sym))

	got, ok := tbl.Order(o.ID)
	require.True(t, ok)
	assert.Equal(t, schema.OrderStatusPending, got.Status)

	_, err = NewTable(0)
	assert.Error(t, err)
}
