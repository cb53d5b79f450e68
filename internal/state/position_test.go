package state

import (
	"path/filepath"
	"testing"

	"execcore/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sym = schema.NewSymbol("DOGE/USDT")

func q(v float64) schema.Quantity { return schema.QuantityFromFloat(v) }
func p(v float64) schema.Price    { return schema.PriceFromFloat(v) }

func TestRoundTripRealizesAndRemoves(t *testing.T) {
	tbl := NewTable()

	pos, tr := tbl.ApplyFill(sym, schema.SideBuy, q(10), p(100), 1)
	assert.Equal(t, TransitionOpened, tr)
	assert.Equal(t, q(10), pos.Quantity)
	assert.Equal(t, p(100), pos.AvgEntryPrice)

	pos, tr = tbl.ApplyFill(sym, schema.SideSell, q(10), p(105), 2)
	assert.Equal(t, TransitionClosed, tr)
	assert.Equal(t, p(50), pos.RealizedPnL)
	assert.True(t, pos.IsFlat())

	_, ok := tbl.Position(sym)
	assert.False(t, ok, "flat positions are removed")
	assert.Zero(t, tbl.Count())
	assert.Equal(t, p(50), tbl.Realized())
}

func TestExtendRecomputesAverage(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFill(sym, schema.SideBuy, q(1), p(100), 1)
	pos, tr := tbl.ApplyFill(sym, schema.SideBuy, q(3), p(104), 2)

	assert.Equal(t, TransitionUpdated, tr)
	assert.Equal(t, q(4), pos.Quantity)
	assert.Equal(t, p(103), pos.AvgEntryPrice)
	assert.Zero(t, pos.RealizedPnL, "extension realizes nothing")
	assert.Equal(t, int64(1), pos.OpenedAt)
	assert.Equal(t, int64(2), pos.UpdatedAt)
}

func TestReduceUsesPriorAverage(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFill(sym, schema.SideBuy, q(5000), p(0.3201), 1)
	pos, tr := tbl.ApplyFill(sym, schema.SideSell, q(3000), p(0.3199), 2)

	assert.Equal(t, TransitionUpdated, tr)
	assert.Equal(t, q(2000), pos.Quantity)
	assert.Equal(t, p(0.3201), pos.AvgEntryPrice)
	assert.Equal(t, schema.Price(-600_000), pos.RealizedPnL)
}

func TestShortSide(t *testing.T) {
	tbl := NewTable()
	pos, _ := tbl.ApplyFill(sym, schema.SideSell, q(2), p(50), 1)
	assert.True(t, pos.IsShort())

	pos, _ = tbl.ApplyFill(sym, schema.SideBuy, q(1), p(40), 2)
	assert.Equal(t, -q(1), pos.Quantity)
	assert.Equal(t, p(10), pos.RealizedPnL)
}

func TestOvershootOpensResidual(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFill(sym, schema.SideBuy, q(2), p(10), 1)
	pos, tr := tbl.ApplyFill(sym, schema.SideSell, q(5), p(12), 2)

	assert.Equal(t, TransitionUpdated, tr)
	assert.Equal(t, -q(3), pos.Quantity)
	assert.Equal(t, p(12), pos.AvgEntryPrice, "residual opens at the fill price")
	assert.Equal(t, p(4), pos.RealizedPnL)
	assert.Equal(t, int64(2), pos.OpenedAt)
}

func TestMarkAndPositions(t *testing.T) {
	tbl := NewTable()
	other := schema.NewSymbol("BTC/USDT")
	tbl.ApplyFill(sym, schema.SideBuy, q(10), p(1), 1)
	tbl.ApplyFill(other, schema.SideSell, q(1), p(100), 1)

	tbl.Mark(sym, p(1.5))
	pos, ok := tbl.Position(sym)
	require.True(t, ok)
	assert.Equal(t, p(5), pos.UnrealizedPnL)

	all := tbl.Positions()
	require.Len(t, all, 2)
	assert.Equal(t, other, all[0].Symbol)
	assert.Equal(t, sym, all[1].Symbol)
	assert.Equal(t, -q(1), tbl.Quantity(other))

	_, tr := tbl.ApplyFill(sym, schema.SideBuy, 0, p(1), 2)
	assert.Equal(t, TransitionNone, tr)
}

func TestSnapshotFile(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFill(sym, schema.SideBuy, q(10), p(1), 1)

	snap := tbl.Snapshot(p(1000))
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	require.NoError(t, WriteSnapshot(path, snap))

	back, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.NoError(t, CompareSnapshots(snap, back))
	assert.Equal(t, p(1000), back.Equity)

	tbl.ApplyFill(sym, schema.SideBuy, q(1), p(1), 2)
	assert.Error(t, CompareSnapshots(snap, tbl.Snapshot(p(1000))))

	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
