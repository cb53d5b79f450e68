package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"execcore/internal/schema"

	"github.com/yanun0323/errors"
)

// Snapshot captures live positions at a point in time.
type Snapshot struct {
	Timestamp int64           `json:"timestamp"`
	Equity    schema.Price    `json:"equity"`
	Realized  schema.Price    `json:"realized"`
	Positions []PositionEntry `json:"positions"`
}

// PositionEntry is a single symbol position entry.
type PositionEntry struct {
	Symbol        string          `json:"symbol"`
	Qty           schema.Quantity `json:"qty"`
	AvgEntryPrice schema.Price    `json:"avgEntryPrice"`
	RealizedPnL   schema.Price    `json:"realizedPnl"`
	UnrealizedPnL schema.Price    `json:"unrealizedPnl"`
}

// Snapshot builds a snapshot from current positions.
func (t *Table) Snapshot(equity schema.Price) Snapshot {
	positions := t.Positions()
	entries := make([]PositionEntry, 0, len(positions))
	for _, pos := range positions {
		entries = append(entries, PositionEntry{
			Symbol:        pos.Symbol.String(),
			Qty:           pos.Quantity,
			AvgEntryPrice: pos.AvgEntryPrice,
			RealizedPnL:   pos.RealizedPnL,
			UnrealizedPnL: pos.UnrealizedPnL,
		})
	}
	return Snapshot{
		Timestamp: time.Now().UTC().UnixNano(),
		Equity:    equity,
		Realized:  t.realized,
		Positions: entries,
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create snapshot dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write snapshot %s", path)
	}
	return nil
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "read snapshot %s", path)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrapf(err, "decode snapshot %s", path)
	}
	return snap, nil
}

// CompareSnapshots checks that two snapshots hold the same positions.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Positions) != len(actual.Positions) {
		return errors.Errorf("snapshot length mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	want := make(map[string]PositionEntry, len(expected.Positions))
	for _, entry := range expected.Positions {
		want[entry.Symbol] = entry
	}
	for _, entry := range actual.Positions {
		exp, ok := want[entry.Symbol]
		if !ok {
			return errors.Errorf("snapshot missing symbol: %s", entry.Symbol)
		}
		if exp.Qty != entry.Qty || exp.AvgEntryPrice != entry.AvgEntryPrice {
			return errors.Errorf("snapshot mismatch: symbol=%s expected=%s@%s actual=%s@%s",
				entry.Symbol, exp.Qty, exp.AvgEntryPrice, entry.Qty, entry.AvgEntryPrice)
		}
	}
	return nil
}
